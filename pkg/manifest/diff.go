package manifest

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Plan is an ordered install plan: components to remove, then components to
// add, in the order the transaction layer should apply them.
type Plan struct {
	Remove []string
	Add    []string
}

// componentOrderWeight ranks package names so rustc sorts before rust-std,
// which sorts before everything else, matching spec.md §4.4: "within
// additions rustc precedes rust-std precedes everything else (because tools
// run during install depend on them existing)".
func componentOrderWeight(name string) int {
	switch name {
	case "rustc":
		return 0
	case "rust-std":
		return 1
	default:
		return 2
	}
}

// Diff computes the ordered install plan for moving from installed to the
// desired component set, per spec.md §4.4:
//
//	desired = (installed ∪ profile ∪ added) \ removed, intersected with
//	          components available for target.
//
// stale names the subset of installed components whose on-disk content hash
// no longer matches the manifest's uncompressed hash for that component;
// they are scheduled for removal and reinstallation even though they remain
// in the desired set.
func (m *Manifest) Diff(target string, installed, profile, added, removed, stale []string) (*Plan, error) {
	installedSet := mapset.NewSet(installed...)
	desired := mapset.NewSet(installed...).Union(mapset.NewSet(profile...)).Union(mapset.NewSet(added...))
	desired = desired.Difference(mapset.NewSet(removed...))

	// Intersect with components actually available for target; packages the
	// manifest doesn't know about at all are dropped silently here (the
	// caller should have already validated names via ResolvePackage and
	// surfaced ErrComponentUnavailable for anything the user explicitly
	// asked for).
	available := mapset.NewSet[string]()
	for name, pkg := range m.Pkg {
		if ta, ok := pkg.Target[target]; ok && ta.Available {
			available.Add(name)
		}
	}
	desired = desired.Intersect(available)

	staleSet := mapset.NewSet(stale...)

	toAdd := desired.Difference(installedSet).Union(desired.Intersect(staleSet))
	toRemove := installedSet.Difference(desired).Union(installedSet.Intersect(staleSet).Intersect(desired))

	plan := &Plan{
		Remove: sortedByName(toRemove.ToSlice()),
		Add:    sortedByOrder(toAdd.ToSlice()),
	}
	return plan, nil
}

func sortedByName(names []string) []string {
	sort.Strings(names)
	return names
}

func sortedByOrder(names []string) []string {
	sort.Slice(names, func(i, j int) bool {
		wi, wj := componentOrderWeight(names[i]), componentOrderWeight(names[j])
		if wi != wj {
			return wi < wj
		}
		return names[i] < names[j]
	})
	return names
}
