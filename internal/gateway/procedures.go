// internal/gateway/procedures.go
package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Annany2002/taxacurator/internal/domain"
)

const searchResearchersSQL = `
SELECT r.id, r.first_name, r.last_name, r.orcid,
       (SELECT json_group_array(json_object('alias_name', a.alias_name))
          FROM researcher_aliases a WHERE a.researcher_id = r.id) AS researcher_aliases
  FROM researchers r
 WHERE ? = ''
    OR r.last_name LIKE ? ESCAPE '\'
    OR r.first_name LIKE ? ESCAPE '\'
    OR r.orcid LIKE ? ESCAPE '\'
    OR EXISTS (SELECT 1 FROM researcher_aliases a
                WHERE a.researcher_id = r.id AND a.alias_name LIKE ? ESCAPE '\')
 ORDER BY r.last_name, r.first_name, r.id`

const searchRepositoriesSQL = `
SELECT r.uuid, r.acronym, r.name_en, r.taxapad_code, r.country, r.city,
       p.uuid AS parent_uuid, p.acronym AS parent_acronym, p.name_en AS parent_name_en,
       CASE WHEN r.parent_id IS NOT NULL AND r.parent_id <> r.uuid THEN 1 ELSE 0 END AS is_synonym
  FROM Repositories r
  LEFT JOIN Repositories p ON p.uuid = r.parent_id
 WHERE ? = ''
    OR r.acronym LIKE ? ESCAPE '\'
    OR r.name_en LIKE ? ESCAPE '\'
    OR r.taxapad_code LIKE ? ESCAPE '\'
    OR r.city LIKE ? ESCAPE '\'
    OR r.country LIKE ? ESCAPE '\'
 ORDER BY r.acronym`

// searchResearchers returns researchers whose name, ORCID or any alias
// contains search_term, each with its aliases embedded.
func searchResearchers(ctx context.Context, s *SQLiteStore, params map[string]any) ([]domain.Record, error) {
	term := domain.Stringify(params["search_term"])
	like := "%" + escapeLike(term) + "%"

	records, err := s.queryRecords(ctx, nil, "rpc search_researchers", searchResearchersSQL,
		term, like, like, like, like)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		var aliases []any
		if raw, ok := rec["researcher_aliases"].(string); ok {
			if err := json.Unmarshal([]byte(raw), &aliases); err != nil {
				return nil, fmt.Errorf("failed decoding aliases for researcher %v: %w", rec["id"], err)
			}
		}
		if aliases == nil {
			aliases = []any{}
		}
		rec["researcher_aliases"] = aliases
	}
	return records, nil
}

// searchRepositories returns repositories matching search_term together with
// their resolved parent.
func searchRepositories(ctx context.Context, s *SQLiteStore, params map[string]any) ([]domain.Record, error) {
	term := domain.Stringify(params["search_term"])
	like := "%" + escapeLike(term) + "%"

	records, err := s.queryRecords(ctx, nil, "rpc search_repositories", searchRepositoriesSQL,
		term, like, like, like, like, like)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		rec["is_synonym"] = rec.Bool("is_synonym")
	}
	return records, nil
}
