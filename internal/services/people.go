package services

import (
	"context"

	"github.com/localnerve/jam-build-admindb/internal/schema"
	"github.com/localnerve/jam-build-admindb/internal/store"
)

// people maps identities to display names through the registry's people
// table.
type people struct {
	reg   *schema.Registry
	store store.DocumentStore
}

// names resolves emails in one batched query when the store allows it.
// Emails with no person, or a person with an empty label, are absent.
func (p *people) names(ctx context.Context, emails []string) (map[string]string, error) {
	out := make(map[string]string, len(emails))
	cfg, ok := p.reg.Table(p.reg.PeopleTable())
	if !ok || len(emails) == 0 {
		return out, nil
	}

	var docs []store.Document
	if finder, ok := p.store.(store.BatchFinder); ok {
		found, err := finder.FindByFieldIn(ctx, cfg.Name, "email", emails)
		if err != nil {
			return nil, err
		}
		docs = found
	} else {
		for _, email := range emails {
			found, err := p.store.FindByField(ctx, cfg.Name, "email", email)
			if err != nil {
				return nil, err
			}
			docs = append(docs, found...)
		}
	}

	for _, doc := range docs {
		email := normalizeEmail(schema.DisplayString(doc.Fields["email"]))
		if _, seen := out[email]; seen {
			continue
		}
		if label := schema.Label(cfg, doc.Fields); label != schema.UntitledLabel {
			out[email] = label
		}
	}
	return out, nil
}
