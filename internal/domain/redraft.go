package domain

// SegmentType marks how a span of text differs between original and redraft.
type SegmentType string

const (
	SegmentUnchanged SegmentType = "unchanged"
	SegmentRemoved   SegmentType = "removed"
	SegmentAdded     SegmentType = "added"
)

// DiffSegment is one typed span of a diff.
type DiffSegment struct {
	Type SegmentType `json:"type"`
	Text string      `json:"text"`
}

// RedraftResult always carries a complete headline and body, even when the
// generator fell back to the original text.
type RedraftResult struct {
	OriginalHeadline string
	RedraftHeadline  string
	OriginalBody     string
	RedraftBody      string
	HeadlineDiff     []DiffSegment
	BodyDiff         []DiffSegment
	ChangesMade      []string
}

// RedraftDiff is the serialized diff stored with the article.
type RedraftDiff struct {
	Headline    []DiffSegment `json:"headline"`
	Body        []DiffSegment `json:"body"`
	ChangesMade []string      `json:"changes_made"`
}

// Diff returns the persisted form of the result.
func (r RedraftResult) Diff() RedraftDiff {
	d := RedraftDiff{
		Headline:    r.HeadlineDiff,
		Body:        r.BodyDiff,
		ChangesMade: r.ChangesMade,
	}
	if d.Headline == nil {
		d.Headline = []DiffSegment{}
	}
	if d.Body == nil {
		d.Body = []DiffSegment{}
	}
	if d.ChangesMade == nil {
		d.ChangesMade = []string{}
	}
	return d
}
