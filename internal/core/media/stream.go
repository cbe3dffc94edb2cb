package media

import (
	"errors"
	"fmt"
	"time"

	"github.com/grafov/m3u8"
)

// ErrNotMediaPlaylist 直播输出应为 media playlist
var ErrNotMediaPlaylist = errors.New("not a media playlist")

// Segment 播放列表中的分片
type Segment struct {
	URI      string  `json:"uri"`
	Duration float64 `json:"duration"`
}

// StreamStatus 直播流当前状态
type StreamStatus struct {
	Playlist       string    `json:"playlist"`
	MediaSequence  uint64    `json:"media_sequence"`
	TargetDuration float64   `json:"target_duration"`
	Segments       []Segment `json:"segments"`
	Closed         bool      `json:"closed"` // 出现 EXT-X-ENDLIST，流水线已停止
	Stale          bool      `json:"stale"`  // 超过 3 个分片时长未更新
	UpdatedAt      time.Time `json:"updated_at"`
}

// PlaylistStatus 解析流水线写入的直播播放列表
func (c Core) PlaylistStatus() (*StreamStatus, error) {
	return c.playlistStatus(time.Now())
}

func (c Core) playlistStatus(now time.Time) (*StreamStatus, error) {
	asset, err := c.Open(NamespaceHLS, c.playlist)
	if err != nil {
		return nil, err
	}
	defer asset.Close()

	p, listType, err := m3u8.DecodeFrom(asset, false)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.playlist, err)
	}
	if listType != m3u8.MEDIA {
		return nil, ErrNotMediaPlaylist
	}
	pl := p.(*m3u8.MediaPlaylist)

	out := StreamStatus{
		Playlist:       c.playlist,
		MediaSequence:  pl.SeqNo,
		TargetDuration: pl.TargetDuration,
		Segments:       make([]Segment, 0, pl.Count()),
		Closed:         pl.Closed,
		UpdatedAt:      asset.ModTime,
	}
	for _, seg := range pl.Segments {
		if seg == nil || uint(len(out.Segments)) >= pl.Count() {
			break
		}
		out.Segments = append(out.Segments, Segment{URI: seg.URI, Duration: seg.Duration})
	}

	target := time.Duration(pl.TargetDuration * float64(time.Second))
	if target <= 0 {
		target = time.Second
	}
	out.Stale = !out.Closed && now.Sub(asset.ModTime) > 3*target
	return &out, nil
}
