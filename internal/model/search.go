package model

// SearchResult is one parsed raw result line.
type SearchResult struct {
	File    string // absolute once it has passed through the pager
	Line    int    // 1-based
	Content string // trimmed
}

// Match is the per-line payload of a FileGroup.
type Match struct {
	Line    int
	Content string
}

// FileGroup holds the revealed matches of one file, in reveal order.
type FileGroup struct {
	File    string
	Matches []Match
}

func (g FileGroup) Count() int {
	return len(g.Matches)
}

// Request describes one search execution.
type Request struct {
	Root           string
	ContentQuery   string
	FilenameFilter string
}

// OpenRequest asks the editor collaborator to jump to a location.
type OpenRequest struct {
	Path string // absolute
	Line int    // 0-based
}

// OpenRequestFor converts a 1-based result location into an OpenRequest.
func OpenRequestFor(file string, line int) OpenRequest {
	l := line - 1
	if l < 0 {
		l = 0
	}
	return OpenRequest{Path: file, Line: l}
}
