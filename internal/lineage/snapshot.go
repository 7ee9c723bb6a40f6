package lineage

// Snapshot is the complete chain state of one meeting. The document
// store loads and saves it as a unit; every backend must preserve this
// exact logical shape so that moving between backends is a pure data
// transform.
type Snapshot struct {
	Base            *Document             `json:"previousDocument,omitempty" bson:"previousDocument,omitempty"`
	Proposals       []Document            `json:"proposals" bson:"proposals"`
	Revisions       map[string][]Document `json:"revisions" bson:"revisions"`
	ResultDocument  *Document             `json:"resultDocument,omitempty" bson:"resultDocument,omitempty"`
	ResultRevisions []Document            `json:"resultRevisions" bson:"resultRevisions"`
	Memos           map[string]string     `json:"memos" bson:"memos"`
}

// NewSnapshot returns an empty snapshot with allocated collections.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Proposals:       []Document{},
		Revisions:       map[string][]Document{},
		ResultRevisions: []Document{},
		Memos:           map[string]string{},
	}
}

// Normalize allocates any nil collections on a snapshot loaded from
// storage (older records may omit empty maps).
func (s *Snapshot) Normalize() {
	if s.Proposals == nil {
		s.Proposals = []Document{}
	}
	if s.Revisions == nil {
		s.Revisions = map[string][]Document{}
	}
	if s.ResultRevisions == nil {
		s.ResultRevisions = []Document{}
	}
	if s.Memos == nil {
		s.Memos = map[string]string{}
	}
}

// proposal returns a pointer into Proposals for the given id, or nil.
func (s *Snapshot) proposal(id string) *Document {
	for i := range s.Proposals {
		if s.Proposals[i].ID == id {
			return &s.Proposals[i]
		}
	}
	return nil
}

// Find locates any document in the snapshot by id, or nil.
func (s *Snapshot) Find(id string) *Document {
	if s.Base != nil && s.Base.ID == id {
		return s.Base
	}
	if p := s.proposal(id); p != nil {
		return p
	}
	for _, revs := range s.Revisions {
		for i := range revs {
			if revs[i].ID == id {
				return &revs[i]
			}
		}
	}
	if s.ResultDocument != nil && s.ResultDocument.ID == id {
		return s.ResultDocument
	}
	for i := range s.ResultRevisions {
		if s.ResultRevisions[i].ID == id {
			return &s.ResultRevisions[i]
		}
	}
	return nil
}

// FilePaths lists every stored payload referenced by the snapshot, in
// no particular order. Used when cascading deletes to the file store.
func (s *Snapshot) FilePaths() []string {
	var out []string
	add := func(d *Document) {
		if d != nil && d.FilePath != "" {
			out = append(out, d.FilePath)
		}
	}
	add(s.Base)
	for i := range s.Proposals {
		add(&s.Proposals[i])
	}
	for _, revs := range s.Revisions {
		for i := range revs {
			add(&revs[i])
		}
	}
	add(s.ResultDocument)
	for i := range s.ResultRevisions {
		add(&s.ResultRevisions[i])
	}
	return out
}
