package watcher

// ReloadPlan describes what a change means for the loaded model
type ReloadPlan struct {
	Reload       bool
	Reason       string
	ChangedFiles []string
}

// PlanReload decides whether a change requires reloading the document
func PlanReload(event ChangeEvent) *ReloadPlan {
	plan := &ReloadPlan{
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeDocument:
		// Written or replaced: the new content is authoritative
		plan.Reload = true
		plan.Reason = "document changed"

	case ChangeTypeRemoved:
		// Keep serving the last good model until the document returns
		plan.Reason = "document removed"
	}

	return plan
}
