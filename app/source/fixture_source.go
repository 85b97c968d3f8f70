package source

import (
	"context"
	"fmt"
	"time"

	"github.com/lexhub/news-pipeline/app/news"
)

// FixtureSource serves deterministic sample items for demos and tests.
// Titles are stable across calls so repeated cycles exercise the dedup path
// the same way the live source does.
type FixtureSource struct{}

func NewFixtureSource() *FixtureSource {
	return &FixtureSource{}
}

func (s *FixtureSource) Name() string {
	return "fixture"
}

// Headlines are phrased to pass the include filters shipped in
// categories/*.yml, so fixture mode populates every category.
var fixtureHeadlines = map[string][]string{
	"imigracao": {
		"Novas regras de visto de trabalho entram em vigor",
		"Autorização de residência: prazos de renovação atualizados",
		"Reagrupamento familiar: AIMA simplifica procedimento",
	},
	"direito": {
		"Supremo Tribunal uniformiza jurisprudência sobre arrendamento",
		"Alterações à lei laboral aprovadas em plenário",
		"Tribunal Constitucional valida novo regime de proteção de dados",
	},
}

func (s *FixtureSource) Fetch(ctx context.Context, category *news.Config) ([]news.CandidateItem, error) {
	select {
	case <-ctx.Done():
		return nil, &FetchError{Category: category.Name, Err: ctx.Err()}
	default:
	}

	headlines, ok := fixtureHeadlines[category.Name]
	if !ok {
		headlines = []string{
			fmt.Sprintf("%s: destaque da semana", category.Title),
			fmt.Sprintf("%s: resumo das últimas decisões", category.Title),
		}
	}

	now := time.Now().UTC()
	items := make([]news.CandidateItem, 0, len(headlines))
	for i, headline := range headlines {
		items = append(items, news.CandidateItem{
			Title:       headline,
			Content:     fmt.Sprintf("Conteúdo de demonstração para a categoria %s: %s.", category.Title, headline),
			PublishedAt: now.Add(-time.Duration(i) * time.Hour),
			SourceName:  "Fixture",
		})
	}

	return items, nil
}
