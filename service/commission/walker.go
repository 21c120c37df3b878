package commission

import (
	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/queries"
)

// Walk visits every ancestor IB of the client, starting at level 1 with the
// direct parent. The level is the absolute distance from the client. The
// walker does no eligibility filtering; the visit callback decides and
// returns false to stop the walk.
//
// The parent chain is finite by construction but the walk still carries a
// visited set and a depth bound as a defence against corrupted parent links.
func (engine *Engine) Walk(client *model.User, visit func(ib *model.User, level int) bool) error {
	visited := map[uint64]bool{client.ID: true}
	parentID := client.ParentIBID

	for level := 1; parentID != nil; level++ {
		if level > engine.maxDepth {
			log.Warn().
				Str("section", "commission").
				Str("action", "walk").
				Uint64("client_id", client.ID).
				Int("max_depth", engine.maxDepth).
				Msg("Referral chain exceeds depth bound, stopping")
			return nil
		}
		if visited[*parentID] {
			log.Warn().
				Str("section", "commission").
				Str("action", "walk").
				Uint64("client_id", client.ID).
				Uint64("ib_id", *parentID).
				Msg("Referral chain cycle detected, stopping")
			return nil
		}

		ib, err := engine.repo.GetUserByID(*parentID)
		if err == queries.ErrUserNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		if !visit(ib, level) {
			return nil
		}
		visited[ib.ID] = true
		parentID = ib.ParentIBID
	}
	return nil
}
