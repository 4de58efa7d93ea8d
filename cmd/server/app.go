package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-airtable-forms/airtable"
	"github.com/jrsteele09/go-airtable-forms/credentials"
	credentialspgrepo "github.com/jrsteele09/go-airtable-forms/credentials/pgrepo"
	credentialsrepofake "github.com/jrsteele09/go-airtable-forms/credentials/repofake"
	"github.com/jrsteele09/go-airtable-forms/formconfigs"
	formconfigspgrepo "github.com/jrsteele09/go-airtable-forms/formconfigs/pgrepo"
	formconfigsrepofake "github.com/jrsteele09/go-airtable-forms/formconfigs/repofake"
	"github.com/jrsteele09/go-airtable-forms/forms"
	"github.com/jrsteele09/go-airtable-forms/internal/config"
	"github.com/jrsteele09/go-airtable-forms/internal/database"
	"github.com/jrsteele09/go-airtable-forms/internal/metrics"
	"github.com/jrsteele09/go-airtable-forms/internal/secrets"
	"github.com/jrsteele09/go-airtable-forms/oauthclient"
	"github.com/jrsteele09/go-airtable-forms/oauthclient/flowstate"
	"github.com/jrsteele09/go-airtable-forms/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
)

// app holds the wired services and the resources to release on exit
type app struct {
	services server.Services
	db       *bun.DB
}

func newApp(ctx context.Context, c config.Config) (*app, error) {
	a := &app{}

	sealer, err := secrets.New(c.GetTokenEncryptionKey())
	if err != nil {
		return nil, fmt.Errorf("[app newApp] %w", err)
	}

	var (
		tokenRepo  credentials.Repo = credentialsrepofake.NewFakeCredentialsRepo()
		configRepo formconfigs.Repo = formconfigsrepofake.NewFakeFormConfigsRepo()
	)
	if c.GetDatabaseURL() != "" {
		a.db, err = database.Open(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("[app newApp] %w", err)
		}
		tokens, configs := credentialspgrepo.New(a.db), formconfigspgrepo.New(a.db)
		if err := database.Migrate(ctx, tokens, configs); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("[app newApp] %w", err)
		}
		tokenRepo, configRepo = tokens, configs
		log.Info().Msg("using postgres storage")
	} else {
		log.Warn().Msg("DATABASE_URL not set, tokens and form configs are kept in memory")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	states := flowstate.NewInMemoryRepo(c.GetFlowStateTTL(), c.GetFlowStateTTL())
	m.TrackFlowStates(states.Len)

	upstream := &http.Client{Timeout: c.GetUpstreamTimeout()}
	tokens := credentials.NewStore(tokenRepo, credentials.WithSealer(sealer))
	configs := formconfigs.NewStore(configRepo)
	ctrl := oauthclient.NewController(c, states, tokens,
		oauthclient.WithHTTPClient(upstream),
		oauthclient.WithMetrics(m),
	)
	gateway := airtable.NewGateway(c, tokens, ctrl,
		airtable.WithHTTPClient(upstream),
		airtable.WithMetrics(m),
	)

	submissionOptions := []forms.SubmissionOption{forms.WithMetrics(m)}
	if c.GetStrictSubmissions() {
		submissionOptions = append(submissionOptions, forms.WithStrictValidation(configs))
	}

	a.services = server.Services{
		Auth:        ctrl,
		Schema:      forms.NewSchemaService(gateway),
		FormConfigs: configs,
		Submissions: forms.NewSubmissionService(gateway, submissionOptions...),
		Metrics:     m,
		Gatherer:    registry,
	}
	return a, nil
}

func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
