package model

// PlaylistVideo is one entry of an expanded playlist
type PlaylistVideo struct {
	ID    string
	Title string
	URL   string
}

// Playlist is the expanded form of a playlist URL
type Playlist struct {
	ID     string
	Title  string
	URL    string
	Videos []*PlaylistVideo
}

// URLs returns the video URLs in playlist order
func (p *Playlist) URLs() []string {
	urls := make([]string, 0, len(p.Videos))
	for _, v := range p.Videos {
		if v.URL != "" {
			urls = append(urls, v.URL)
		}
	}
	return urls
}
