package atlas

// Lookup operations over an atlas plus ordered active-package and
// active-language lists. All lookups are pure: they never mutate the atlas
// and never fail loudly. An unknown name is an absent result, not an error.

// FindSource returns the item matching the source name, scanning the active
// packages in priority order. An item is eligible when its language tag is
// NoLanguage or appears in activeLanguages.
//
// Package priority dominates: the first package containing an eligible item
// wins outright. Within that package, language priority decides between
// variants of the same source name (an earlier entry in activeLanguages
// shadows a later one; NoLanguage ranks alongside the highest-priority
// language). Ties fall back to item order.
func (a *Atlas) FindSource(sourceName string, activePackages, activeLanguages []string) (SoundItem, bool) {
	for _, pkgName := range activePackages {
		pkg := a.packages[pkgName]
		if pkg == nil {
			continue
		}
		var (
			best     SoundItem
			bestRank = -1
		)
		for _, item := range pkg.Items {
			if item.SourceName != sourceName {
				continue
			}
			rank := languageRank(item.Language, activeLanguages)
			if rank < 0 {
				continue
			}
			if bestRank < 0 || rank < bestRank {
				best, bestRank = item, rank
			}
		}
		if bestRank >= 0 {
			return best, true
		}
	}
	return SoundItem{}, false
}

// languageRank returns the priority rank of a language tag, or -1 when the
// tag is not active. NoLanguage matches any active language at top rank.
func languageRank(tag string, activeLanguages []string) int {
	if tag == NoLanguage {
		return 0
	}
	for i, lang := range activeLanguages {
		if lang == tag {
			return i
		}
	}
	return -1
}

// FindFile returns the first item with the given file id, scanning active
// packages in priority order.
func (a *Atlas) FindFile(fileID string, activePackages []string) (SoundItem, bool) {
	for _, pkgName := range activePackages {
		pkg := a.packages[pkgName]
		if pkg == nil {
			continue
		}
		for _, item := range pkg.Items {
			if item.FileID == fileID {
				return item, true
			}
		}
	}
	return SoundItem{}, false
}

// SourceNames returns the de-duplicated union of source names across the
// given packages, filtered by language membership, in first-seen order.
func (a *Atlas) SourceNames(packageNames, languages []string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, pkgName := range packageNames {
		pkg := a.packages[pkgName]
		if pkg == nil {
			continue
		}
		for _, item := range pkg.Items {
			if item.Language != NoLanguage && !contains(languages, item.Language) {
				continue
			}
			if _, ok := seen[item.SourceName]; ok {
				continue
			}
			seen[item.SourceName] = struct{}{}
			names = append(names, item.SourceName)
		}
	}
	return names
}

// Languages returns the de-duplicated list of language tags appearing in the
// given packages, in first-seen order. The NoLanguage sentinel is excluded.
func (a *Atlas) Languages(packageNames []string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, pkgName := range packageNames {
		pkg := a.packages[pkgName]
		if pkg == nil {
			continue
		}
		for _, item := range pkg.Items {
			if item.Language == NoLanguage {
				continue
			}
			if _, ok := seen[item.Language]; ok {
				continue
			}
			seen[item.Language] = struct{}{}
			tags = append(tags, item.Language)
		}
	}
	return tags
}

// Items returns every item in the given packages whose language tag is
// NoLanguage or appears in languages, in scan order.
func (a *Atlas) Items(packageNames, languages []string) []SoundItem {
	var items []SoundItem
	for _, pkgName := range packageNames {
		pkg := a.packages[pkgName]
		if pkg == nil {
			continue
		}
		for _, item := range pkg.Items {
			if item.Language == NoLanguage || contains(languages, item.Language) {
				items = append(items, item)
			}
		}
	}
	return items
}

// ItemsForLanguage returns every item in the given packages tagged with
// exactly the given language.
func (a *Atlas) ItemsForLanguage(packageNames []string, language string) []SoundItem {
	var items []SoundItem
	for _, pkgName := range packageNames {
		pkg := a.packages[pkgName]
		if pkg == nil {
			continue
		}
		for _, item := range pkg.Items {
			if item.Language == language {
				items = append(items, item)
			}
		}
	}
	return items
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
