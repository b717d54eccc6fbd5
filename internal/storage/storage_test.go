package storage

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "citegraph.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetOrCreatePublication(t *testing.T) {
	db := openTestDB(t)

	pub, created, err := db.GetOrCreatePublication("10.1/root", 0, true)
	if err != nil {
		t.Fatalf("GetOrCreatePublication() error: %v", err)
	}
	if !created {
		t.Error("first call: created = false, want true")
	}
	if pub.DOI != "10.1/root" || pub.ReferenceLevel != 0 || !pub.ExpansionEnabled {
		t.Errorf("created pub = %+v", pub)
	}

	// Different casing and URL form must resolve to the same row.
	again, created, err := db.GetOrCreatePublication("HTTPS://DOI.ORG/10.1/ROOT", 3, false)
	if err != nil {
		t.Fatalf("second GetOrCreatePublication() error: %v", err)
	}
	if created {
		t.Error("second call: created = true, want false")
	}
	if again.ID != pub.ID {
		t.Errorf("second call resolved %s, want %s", again.ID, pub.ID)
	}
	if again.ReferenceLevel != 0 {
		t.Errorf("existing level changed to %d, want 0", again.ReferenceLevel)
	}

	count, err := db.CountPublications()
	if err != nil {
		t.Fatalf("CountPublications() error: %v", err)
	}
	if count != 1 {
		t.Errorf("publication count = %d, want 1", count)
	}
}

func TestGetOrCreatePublicationConcurrent(t *testing.T) {
	db := openTestDB(t)

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pub, _, err := db.GetOrCreatePublication("10.1/raced", 1, false)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = pub.ID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Errorf("worker %d observed id %s, worker 0 observed %s", i, ids[i], ids[0])
		}
	}

	count, _ := db.CountPublications()
	if count != 1 {
		t.Errorf("publication count after race = %d, want 1", count)
	}
}

func TestLowerReferenceLevel(t *testing.T) {
	db := openTestDB(t)

	pub, _, err := db.GetOrCreatePublication("10.1/deep", 3, false)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.LowerReferenceLevel(pub.ID, 1); err != nil {
		t.Fatalf("LowerReferenceLevel(1) error: %v", err)
	}
	got, _ := db.GetPublication(pub.ID)
	if got.ReferenceLevel != 1 {
		t.Errorf("level = %d, want 1", got.ReferenceLevel)
	}

	// Levels are never raised.
	if err := db.LowerReferenceLevel(pub.ID, 5); err != nil {
		t.Fatalf("LowerReferenceLevel(5) error: %v", err)
	}
	got, _ = db.GetPublication(pub.ID)
	if got.ReferenceLevel != 1 {
		t.Errorf("level after attempted raise = %d, want 1", got.ReferenceLevel)
	}
}

func TestUpdateParsedFields(t *testing.T) {
	db := openTestDB(t)

	pub, _, err := db.GetOrCreatePublication("10.1/work", 0, true)
	if err != nil {
		t.Fatal(err)
	}

	date := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := db.UpdateParsedFields(pub.ID, "A Title", &date); err != nil {
		t.Fatalf("UpdateParsedFields() error: %v", err)
	}

	got, _ := db.GetPublication(pub.ID)
	if got.Title != "A Title" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Published == nil || !got.Published.Equal(date) {
		t.Errorf("published = %v, want %v", got.Published, date)
	}

	// Absent parsed values leave stored fields untouched.
	if err := db.UpdateParsedFields(pub.ID, "", nil); err != nil {
		t.Fatalf("UpdateParsedFields(empty) error: %v", err)
	}
	got, _ = db.GetPublication(pub.ID)
	if got.Title != "A Title" || got.Published == nil {
		t.Errorf("fields cleared by empty update: %+v", got)
	}
}

func TestReplaceAuthorshipIdempotent(t *testing.T) {
	db := openTestDB(t)

	pub, _, err := db.GetOrCreatePublication("10.1/auth", 0, true)
	if err != nil {
		t.Fatal(err)
	}

	idents := []AuthorIdentity{
		{First: "Ada", Last: "Lovelace", ORCID: "0000-0001"},
		{First: "Charles", Last: "Babbage"},
	}

	for run := 0; run < 2; run++ {
		if err := db.ReplaceAuthorship(pub.ID, idents); err != nil {
			t.Fatalf("run %d: ReplaceAuthorship() error: %v", run, err)
		}
	}

	authors, err := db.AuthorsOf(pub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(authors) != 2 {
		t.Fatalf("len(authors) = %d, want 2", len(authors))
	}
	if authors[0].Last != "Lovelace" || authors[1].Last != "Babbage" {
		t.Errorf("author order = %s, %s", authors[0].Last, authors[1].Last)
	}

	// The second replace must not have duplicated author rows.
	all, _ := db.ListAuthors()
	if len(all) != 2 {
		t.Errorf("total authors = %d, want 2", len(all))
	}
}

func TestReplaceReferences(t *testing.T) {
	db := openTestDB(t)

	root, _, err := db.GetOrCreatePublication("10.1/root", 0, true)
	if err != nil {
		t.Fatal(err)
	}

	refs := []ReferenceCandidate{
		{DOI: "10.1/child", Title: "Child Work", RefKey: 1},
		{Title: "Title Only Work", RefKey: 2},
		{DOI: "10.1/root", RefKey: 3}, // self-citation
	}

	result, err := db.ReplaceReferences(root, refs)
	if err != nil {
		t.Fatalf("ReplaceReferences() error: %v", err)
	}

	if result.SelfSkipped != 1 {
		t.Errorf("SelfSkipped = %d, want 1", result.SelfSkipped)
	}
	if result.Edges != 2 {
		t.Errorf("Edges = %d, want 2", result.Edges)
	}
	if len(result.CreatedTargets) != 2 {
		t.Fatalf("len(CreatedTargets) = %d, want 2", len(result.CreatedTargets))
	}

	child, _ := db.GetPublicationByDOI("10.1/child")
	if child == nil {
		t.Fatal("child publication not created")
	}
	if child.ReferenceLevel != 1 {
		t.Errorf("child level = %d, want 1", child.ReferenceLevel)
	}
	if child.ExpansionEnabled {
		t.Error("child expansion enabled, want disabled")
	}
	if child.Title != "Child Work" {
		t.Errorf("child title = %q", child.Title)
	}

	edges, _ := db.OutgoingReferences(root.ID)
	if len(edges) != 2 {
		t.Fatalf("len(edges) = %d, want 2", len(edges))
	}
	if edges[0].RefKey != 1 || edges[0].TargetID != child.ID {
		t.Errorf("edges[0] = %+v", edges[0])
	}
}

func TestReplaceReferencesLowersExistingLevel(t *testing.T) {
	db := openTestDB(t)

	deep, _, err := db.GetOrCreatePublication("10.1/deep", 3, false)
	if err != nil {
		t.Fatal(err)
	}
	root, _, err := db.GetOrCreatePublication("10.1/root", 0, true)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := db.ReplaceReferences(root, []ReferenceCandidate{{DOI: "10.1/deep", RefKey: 1}}); err != nil {
		t.Fatal(err)
	}

	got, _ := db.GetPublication(deep.ID)
	if got.ReferenceLevel != 1 {
		t.Errorf("level = %d, want 1 after being reached from a root", got.ReferenceLevel)
	}
}

func TestReplaceReferencesReplacesWholesale(t *testing.T) {
	db := openTestDB(t)

	root, _, err := db.GetOrCreatePublication("10.1/root", 0, true)
	if err != nil {
		t.Fatal(err)
	}

	first := []ReferenceCandidate{{DOI: "10.1/a", RefKey: 1}, {DOI: "10.1/b", RefKey: 2}}
	if _, err := db.ReplaceReferences(root, first); err != nil {
		t.Fatal(err)
	}

	second := []ReferenceCandidate{{DOI: "10.1/b", RefKey: 9}}
	if _, err := db.ReplaceReferences(root, second); err != nil {
		t.Fatal(err)
	}

	edges, _ := db.OutgoingReferences(root.ID)
	if len(edges) != 1 {
		t.Fatalf("len(edges) = %d, want 1", len(edges))
	}
	if edges[0].RefKey != 9 {
		t.Errorf("refKey = %d, want 9", edges[0].RefKey)
	}

	b, _ := db.GetPublicationByDOI("10.1/a")
	if b == nil {
		t.Error("orphaned target deleted; targets must survive edge replacement")
	}
}

func TestMergeAuthors(t *testing.T) {
	db := openTestDB(t)

	pubA, _, _ := db.GetOrCreatePublication("10.1/a", 0, true)
	pubB, _, _ := db.GetOrCreatePublication("10.1/b", 0, true)
	pubC, _, _ := db.GetOrCreatePublication("10.1/c", 0, true)

	// X authors A and B; Y authors B (overlap) and C (disjoint).
	x, _, _ := db.GetOrCreateAuthor("A.", "Smith", "")
	y, _, _ := db.GetOrCreateAuthor("Alice", "Smith", "0000-0002")

	if err := db.ReplaceAuthorship(pubA.ID, []AuthorIdentity{{First: "A.", Last: "Smith"}}); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceAuthorship(pubB.ID, []AuthorIdentity{
		{First: "A.", Last: "Smith"},
		{First: "Alice", Last: "Smith", ORCID: "0000-0002"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceAuthorship(pubC.ID, []AuthorIdentity{{First: "Alice", Last: "Smith", ORCID: "0000-0002"}}); err != nil {
		t.Fatal(err)
	}

	stats, err := db.MergeAuthors(x.ID, []string{y.ID}, MergeFields{First: "Alice", Last: "Smith", ORCID: "0000-0002"})
	if err != nil {
		t.Fatalf("MergeAuthors() error: %v", err)
	}

	if stats.Repointed != 1 {
		t.Errorf("Repointed = %d, want 1 (pubC)", stats.Repointed)
	}
	if stats.ConflictsResolved != 1 {
		t.Errorf("ConflictsResolved = %d, want 1 (pubB)", stats.ConflictsResolved)
	}
	if stats.SourcesDeleted != 1 {
		t.Errorf("SourcesDeleted = %d, want 1", stats.SourcesDeleted)
	}

	// Y no longer exists.
	gone, _ := db.GetAuthor(y.ID)
	if gone != nil {
		t.Error("source author still exists after merge")
	}

	// X carries the merged identity and exactly 3 distinct edges.
	merged, _ := db.GetAuthor(x.ID)
	if merged.First != "Alice" || merged.ORCID != "0000-0002" {
		t.Errorf("merged identity = %+v", merged)
	}
	pubs, _ := db.PublicationsOfAuthor(x.ID)
	if len(pubs) != 3 {
		t.Errorf("merged author has %d publications, want 3", len(pubs))
	}

	// The overlapping publication keeps the lower-order edge.
	edges, _ := db.AuthorshipsOf(pubB.ID)
	if len(edges) != 1 {
		t.Fatalf("pubB has %d authorship edges, want 1", len(edges))
	}
	if edges[0].AuthorID != x.ID || edges[0].Ord != 0 {
		t.Errorf("pubB edge = %+v, want target author at ord 0", edges[0])
	}
}

func TestMergeAuthorsKeepsIdentityWhenFieldsEmpty(t *testing.T) {
	db := openTestDB(t)

	target, _, _ := db.GetOrCreateAuthor("Marie", "Curie", "0000-0003")
	source, _, _ := db.GetOrCreateAuthor("M.", "Curie", "")

	if _, err := db.MergeAuthors(target.ID, []string{source.ID}, MergeFields{}); err != nil {
		t.Fatalf("MergeAuthors() error: %v", err)
	}

	merged, _ := db.GetAuthor(target.ID)
	if merged.First != "Marie" || merged.Last != "Curie" || merged.ORCID != "0000-0003" {
		t.Errorf("merged = %+v, want target identity unchanged", merged)
	}
}

func TestPinUnpin(t *testing.T) {
	db := openTestDB(t)

	pub, _, _ := db.GetOrCreatePublication("10.1/fav", 0, true)

	if err := db.Pin("marie", pub.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.Pin("marie", pub.ID); err != nil {
		t.Fatalf("re-pin error: %v", err)
	}

	ids, err := db.PinnedPublicationIDs("marie")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != pub.ID {
		t.Errorf("pinned = %v, want [%s]", ids, pub.ID)
	}

	marks, err := db.Bookmarks("marie")
	if err != nil {
		t.Fatal(err)
	}
	if len(marks) != 1 || marks[0].PublicationID != pub.ID || marks[0].User != "marie" {
		t.Errorf("bookmarks = %+v", marks)
	}
	if marks[0].AddedAt.IsZero() {
		t.Error("bookmark has no added_at timestamp")
	}

	if err := db.Unpin("marie", pub.ID); err != nil {
		t.Fatal(err)
	}
	ids, _ = db.PinnedPublicationIDs("marie")
	if len(ids) != 0 {
		t.Errorf("pinned after unpin = %v, want empty", ids)
	}
}

func TestGetOrCreateAuthorIdentity(t *testing.T) {
	db := openTestDB(t)

	a, created, err := db.GetOrCreateAuthor("Ada", "Lovelace", "https://orcid.org/0000-0001")
	if err != nil {
		t.Fatal(err)
	}
	if !created || a.ORCID != "0000-0001" {
		t.Errorf("created=%v author=%+v", created, a)
	}

	b, created, err := db.GetOrCreateAuthor("Ada", "Lovelace", "0000-0001")
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("same normalized identity created a second row")
	}
	if b.ID != a.ID {
		t.Errorf("resolved %s, want %s", b.ID, a.ID)
	}

	// A different tuple is a different author: exact-key resolution only.
	c, created, err := db.GetOrCreateAuthor("A.", "Lovelace", "")
	if err != nil {
		t.Fatal(err)
	}
	if !created || c.ID == a.ID {
		t.Error("loose tuple unexpectedly matched existing author")
	}
}
