// Package seed fills an empty database with sample portfolio content.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aTrapDeer/portfolio-backend/internal/models"
	"github.com/aTrapDeer/portfolio-backend/internal/storage"
)

// Result counts created and failed rows per collection.
type Result struct {
	Skipped bool
	Created map[string]int
	Failed  map[string]int
}

func (r *Result) record(collection string, err error, log *slog.Logger) {
	if err != nil {
		r.Failed[collection]++
		log.Warn("seed row failed", "collection", collection, "err", err)
		return
	}
	r.Created[collection]++
}

// Run seeds store unless it already has projects. A failing row is counted
// and logged; the rest still go in.
func Run(ctx context.Context, store *storage.Storage, log *slog.Logger) (Result, error) {
	res := Result{Created: map[string]int{}, Failed: map[string]int{}}

	existing, err := store.Projects(ctx)
	if err != nil {
		return res, fmt.Errorf("check existing projects: %w", err)
	}
	if len(existing) > 0 {
		log.Info("database already has content, skipping seed", "projects", len(existing))
		res.Skipped = true
		return res, nil
	}

	for _, in := range projects() {
		_, err := store.CreateProject(ctx, in)
		res.record("projects", err, log)
	}
	for _, in := range skills() {
		_, err := store.CreateSkill(ctx, in)
		res.record("skills", err, log)
	}
	for _, in := range experiences() {
		_, err := store.CreateExperience(ctx, in)
		res.record("experiences", err, log)
	}
	_, err = store.CreateMessage(ctx, models.MessageInput{
		Name:    s("Portfolio"),
		Email:   s("noreply@example.com"),
		Subject: s("Welcome"),
		Message: s("Your portfolio backend is up. Messages from the contact form will show here."),
	})
	res.record("messages", err, log)

	for _, c := range []string{"projects", "skills", "experiences", "messages"} {
		log.Info("seeded collection", "collection", c, "created", res.Created[c], "failed", res.Failed[c])
	}
	return res, nil
}

func s(v string) *string { return &v }

func projects() []models.ProjectInput {
	return []models.ProjectInput{
		{
			Title:            s("Realtime Chat Service"),
			Description:      s("A websocket chat backend with rooms, presence and message history."),
			TechStack:        &[]string{"Go", "Redis", "PostgreSQL", "WebSockets"},
			ImageURL:         s("/images/projects/chat.png"),
			GithubURL:        s("https://github.com/example/chat-service"),
			Category:         s("Backend"),
			ProblemStatement: s("Polling based chat did not scale past a few hundred users."),
			SystemDesign:     s("Stateless gateways fan out through Redis pub/sub; history lives in PostgreSQL."),
			Learnings:        s("Backpressure on slow clients matters more than raw throughput."),
		},
		{
			Title:       s("Portfolio Site"),
			Description: s("A statically generated portfolio that revalidates when content changes."),
			TechStack:   &[]string{"Next.js", "TypeScript", "Tailwind CSS"},
			ImageURL:    s("/images/projects/portfolio.png"),
			LiveURL:     s("https://example.com"),
			Category:    s("Web"),
			Motivation:  s("One place to keep projects and experience up to date."),
		},
		{
			Title:       s("Sensor Dashboard"),
			Description: s("Collects readings from home sensors and charts them over time."),
			TechStack:   &[]string{"Python", "MQTT", "Grafana"},
			ImageURL:    s("/images/projects/sensors.png"),
			Category:    s("IoT"),
			Challenges:  s("Devices drop off the network and replay stale readings on reconnect."),
		},
	}
}

func skills() []models.SkillInput {
	return []models.SkillInput{
		{Name: s("Go"), Category: s("Languages")},
		{Name: s("TypeScript"), Category: s("Languages")},
		{Name: s("Python"), Category: s("Languages")},
		{Name: s("React"), Category: s("Frontend"), Icon: s("Layout")},
		{Name: s("PostgreSQL"), Category: s("Databases"), Icon: s("Database")},
		{Name: s("Docker"), Category: s("Tools"), Icon: s("Box")},
	}
}

func experiences() []models.ExperienceInput {
	return []models.ExperienceInput{
		{
			Role:         s("Software Engineer"),
			Organization: s("Example Corp"),
			Period:       s("2023 - Present"),
			Description:  s("Builds and operates internal APIs and data pipelines."),
		},
		{
			Role:         s("B.S. Computer Science"),
			Organization: s("State University"),
			Period:       s("2019 - 2023"),
			Description:  s("Coursework in distributed systems, databases and networks."),
			Type:         s("Education"),
		},
	}
}
