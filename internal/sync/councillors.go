package sync

import (
	"context"
	"strings"
	"unicode"
)

// resolveCouncillor maps a scraped name to a councillor record ID. Exact
// name match first, then a normalized last-name match against the full
// councillor list ("W. Lo" finds "Wilson Lo"), then a fresh record. The
// last-name fallback is a heuristic and can mislink councillors sharing a
// surname; the upstream roster has none today.
func (u *Uploader) resolveCouncillor(ctx context.Context, name string) (string, error) {
	if id, ok := u.nameCache[name]; ok {
		return id, nil
	}

	exact, err := u.store.FindByField(ctx, u.tables.Councillors, "Name", name)
	if err != nil {
		return "", err
	}
	if len(exact) > 0 {
		u.nameCache[name] = exact[0].ID
		return exact[0].ID, nil
	}

	if !u.councillorsLoaded {
		all, err := u.store.List(ctx, u.tables.Councillors)
		if err != nil {
			return "", err
		}
		u.councillors = all
		u.councillorsLoaded = true
	}

	if target := lastNameKey(name); target != "" {
		for _, rec := range u.councillors {
			existing, ok := rec.Fields["Name"].(string)
			if !ok {
				continue
			}
			if lastNameKey(existing) == target {
				u.nameCache[name] = rec.ID
				return rec.ID, nil
			}
		}
	}

	created, err := u.store.Create(ctx, u.tables.Councillors, map[string]interface{}{
		"Name": name,
	})
	if err != nil {
		return "", err
	}

	u.councillors = append(u.councillors, created)
	u.nameCache[name] = created.ID
	return created.ID, nil
}

// lastNameKey returns the lowercased final word of a name with leading and
// trailing punctuation trimmed. "M. O'Brien" and "Maria O'Brien" both key
// to "o'brien"; punctuation inside the word is kept.
func lastNameKey(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}

	last := strings.TrimFunc(words[len(words)-1], func(r rune) bool {
		return unicode.IsPunct(r)
	})
	return strings.ToLower(last)
}
