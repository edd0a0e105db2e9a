package model

// SourceType identifies which adapter family produced a CollectedItem.
type SourceType string

const (
	SourceNews      SourceType = "news"
	SourceForum     SourceType = "forum"
	SourceFeed      SourceType = "feed"
	SourceMicroblog SourceType = "microblog"
)

// Valid reports whether t is one of the known source types.
func (t SourceType) Valid() bool {
	switch t {
	case SourceNews, SourceForum, SourceFeed, SourceMicroblog:
		return true
	default:
		return false
	}
}

func (t SourceType) String() string {
	return string(t)
}
