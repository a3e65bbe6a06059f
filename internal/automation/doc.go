// Package automation defines the automation catalog for Spritewire.
//
// An automation is a declarative rule binding an event source (a named
// webhook adapter or a cron schedule) and a list of flat match predicates
// to an instruction template and a target sprite. Automations are managed
// through the admin API and stored in SQLite; the dispatch pipeline and
// the scheduler consume them read-only.
//
// # Key Types
//
//   - Automation: the unit of configuration (sprite, source, match, run)
//   - Sprite: target descriptor for the remote execution environment
//   - Source: tagged union of the webhook and cron variants
//   - ExecutionResult: per-automation outcome of one dispatch
//   - Repository: persistence interface with a SQLite implementation
//
// # Consistency
//
// There is deliberately no in-process catalog cache. Every dispatch
// decision and every scheduler reconciliation re-reads the repository,
// trading extra queries for trivial consistency reasoning: a catalog
// mutation is visible to the very next event.
//
// # Usage
//
//	repo := automation.NewSQLiteRepository(db.DB)
//	if err := automation.ValidateAutomation(a); err != nil {
//	    return err
//	}
//	if err := repo.Create(ctx, a); err != nil {
//	    return err
//	}
package automation
