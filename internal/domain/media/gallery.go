package media

import "sort"

// Card element kinds
const (
	KindImage = "img"
	KindVideo = "video"
)

// Card is one rendered gallery tile
type Card struct {
	Key       string `json:"key"`
	Kind      string `json:"kind"`
	Src       string `json:"src"`
	Thumbnail string `json:"thumbnail"`
	Alt       string `json:"alt"`
	FileID    string `json:"fileId"`
	Badge     Type   `json:"badge"`
}

// ThumbnailFunc maps an image delivery URL to its thumbnail URL
type ThumbnailFunc func(url string) string

// ImageKitThumbnail requests a 400x400 smart crop from the media CDN
func ImageKitThumbnail(url string) string {
	return url + "?tr=w-400,h-400,fo-auto"
}

// VideoPoster seeks the preview frame half a second in
func VideoPoster(url string) string {
	return url + "#t=0.5"
}

// Render rebuilds the whole gallery from a snapshot: ascending by order, missing
// order counts as 0, equal orders keep snapshot order. A nil thumb uses
// ImageKitThumbnail.
func Render(snap Snapshot, thumb ThumbnailFunc) []Card {
	if thumb == nil {
		thumb = ImageKitThumbnail
	}

	entries := make([]Entry, len(snap))
	copy(entries, snap)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Record.Order < entries[j].Record.Order
	})

	cards := make([]Card, 0, len(entries))
	for _, e := range entries {
		card := Card{
			Key:    e.Key,
			Src:    e.Record.URL,
			Alt:    e.Record.Alt,
			FileID: e.Record.FileID,
			Badge:  e.Record.Type,
		}
		if e.Record.Type == TypeVideo {
			card.Kind = KindVideo
			card.Thumbnail = VideoPoster(e.Record.URL)
		} else {
			card.Kind = KindImage
			card.Badge = TypeImage
			card.Thumbnail = thumb(e.Record.URL)
		}
		cards = append(cards, card)
	}
	return cards
}
