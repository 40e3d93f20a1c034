package audit

import "reflect"

// FieldDelta is the old/new pair for one changed scalar attribute
type FieldDelta struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ChangeSet records the added/deleted/unchanged members of one attribute.
// For scalars, added/deleted hold at most one element each; for relationship
// collections they hold the members that joined or left the collection.
type ChangeSet struct {
	Added     []any `json:"added,omitempty"`
	Deleted   []any `json:"deleted,omitempty"`
	Unchanged []any `json:"unchanged,omitempty"`
}

// DiffResult is the output of diffing one entity's pending changes.
// Original holds the full pre-change view (old values for changed attributes,
// current values for unchanged ones); Diff holds old/new pairs for changed
// scalars only; HistChanges holds the added/deleted/unchanged triples for
// every changed attribute, relationships included.
type DiffResult struct {
	RowKey      string
	Original    map[string]any
	Diff        map[string]FieldDelta
	HistChanges map[string]ChangeSet
}

// HasChanges reports whether any attribute had a pending change. Callers must
// suppress record creation when it returns false.
func (r DiffResult) HasChanges() bool {
	return len(r.Diff) > 0 || len(r.HistChanges) > 0
}

// ChangesMap merges the per-field deltas and change sets into one
// transport-safe map, the shape persisted on the audit record.
func (r DiffResult) ChangesMap() map[string]any {
	if !r.HasChanges() {
		return nil
	}
	out := make(map[string]any, len(r.HistChanges))
	for name, set := range r.HistChanges {
		entry := map[string]any{}
		if delta, ok := r.Diff[name]; ok {
			entry["old"] = delta.Old
			entry["new"] = delta.New
		}
		if len(set.Added) > 0 {
			entry["added"] = set.Added
		}
		if len(set.Deleted) > 0 {
			entry["deleted"] = set.Deleted
		}
		if len(set.Unchanged) > 0 {
			entry["unchanged"] = set.Unchanged
		}
		out[name] = entry
	}
	return out
}

// Snapshot is a normalized point-in-time view of one entity's audited state
type Snapshot struct {
	ClassName   string
	RowKey      string
	Fields      map[string]any
	Collections map[string][]any
}

// TakeSnapshot captures the normalized current state of an auditable entity
func TakeSnapshot(e Auditable) Snapshot {
	snap := Snapshot{
		ClassName: e.AuditClassName(),
		RowKey:    e.AuditRowKey(),
		Fields:    NormalizeMap(e.AuditSnapshot()),
	}
	if owner, ok := e.(CollectionOwner); ok {
		collections := owner.AuditCollections()
		if len(collections) > 0 {
			snap.Collections = make(map[string][]any, len(collections))
			for name, members := range collections {
				normalized := make([]any, 0, len(members))
				for _, member := range members {
					normalized = append(normalized, NormalizeValue(member))
				}
				snap.Collections[name] = normalized
			}
		}
	}
	return snap
}

// BuildDiff compares the pre-change snapshot against the current one and
// produces the diff for one audit record. A nil old snapshot means the entity
// is newly inserted; a nil current snapshot means it is being deleted.
func BuildDiff(old *Snapshot, current *Snapshot) DiffResult {
	result := DiffResult{
		Original:    make(map[string]any),
		Diff:        make(map[string]FieldDelta),
		HistChanges: make(map[string]ChangeSet),
	}

	switch {
	case old == nil && current == nil:
		return result
	case old == nil:
		// Newly inserted entity: every non-nil attribute is an addition and
		// there is no pre-change state to record.
		result.RowKey = current.RowKey
		for name, value := range current.Fields {
			if value == nil {
				continue
			}
			result.Diff[name] = FieldDelta{Old: nil, New: value}
			result.HistChanges[name] = ChangeSet{Added: []any{value}}
		}
		for name, members := range current.Collections {
			if len(members) == 0 {
				continue
			}
			result.HistChanges[name] = ChangeSet{Added: members}
		}
		return result
	case current == nil:
		result.RowKey = old.RowKey
		for name, value := range old.Fields {
			result.Original[name] = value
			if value == nil {
				continue
			}
			result.Diff[name] = FieldDelta{Old: value, New: nil}
			result.HistChanges[name] = ChangeSet{Deleted: []any{value}}
		}
		for name, members := range old.Collections {
			if len(members) == 0 {
				continue
			}
			result.HistChanges[name] = ChangeSet{Deleted: members}
		}
		return result
	}

	result.RowKey = current.RowKey

	for name, newValue := range current.Fields {
		oldValue, existed := old.Fields[name]
		if existed && reflect.DeepEqual(oldValue, newValue) {
			// Unchanged attributes appear in the original view only.
			result.Original[name] = newValue
			continue
		}
		result.Original[name] = oldValue
		result.Diff[name] = FieldDelta{Old: oldValue, New: newValue}
		set := ChangeSet{}
		if newValue != nil {
			set.Added = []any{newValue}
		}
		if oldValue != nil {
			set.Deleted = []any{oldValue}
		}
		result.HistChanges[name] = set
	}
	for name, oldValue := range old.Fields {
		if _, still := current.Fields[name]; still {
			continue
		}
		result.Original[name] = oldValue
		result.Diff[name] = FieldDelta{Old: oldValue, New: nil}
		result.HistChanges[name] = ChangeSet{Deleted: []any{oldValue}}
	}

	for name, newMembers := range current.Collections {
		oldMembers := old.Collections[name]
		added, deleted, unchanged := diffMembers(oldMembers, newMembers)
		if len(added) == 0 && len(deleted) == 0 {
			continue
		}
		result.HistChanges[name] = ChangeSet{Added: added, Deleted: deleted, Unchanged: unchanged}
	}
	for name, oldMembers := range old.Collections {
		if _, still := current.Collections[name]; still {
			continue
		}
		if len(oldMembers) == 0 {
			continue
		}
		result.HistChanges[name] = ChangeSet{Deleted: oldMembers}
	}

	return result
}

// diffMembers computes set membership changes between two collections
func diffMembers(oldMembers, newMembers []any) (added, deleted, unchanged []any) {
	for _, member := range newMembers {
		if containsMember(oldMembers, member) {
			unchanged = append(unchanged, member)
		} else {
			added = append(added, member)
		}
	}
	for _, member := range oldMembers {
		if !containsMember(newMembers, member) {
			deleted = append(deleted, member)
		}
	}
	return added, deleted, unchanged
}

func containsMember(members []any, candidate any) bool {
	for _, member := range members {
		if reflect.DeepEqual(member, candidate) {
			return true
		}
	}
	return false
}
