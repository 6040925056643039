package rss

import (
	"bytes"
	"fmt"
	"reviewfeed/internal/domain"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buildTime = time.Date(2024, 3, 20, 8, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return buildTime }

func mustReview(t *testing.T, title, link, description string, pubDate time.Time) domain.Review {
	t.Helper()
	r, err := domain.NewReview(title, link, description, pubDate)
	require.NoError(t, err)
	return r
}

func sampleReviews(t *testing.T) []domain.Review {
	return []domain.Review{
		mustReview(t, "Ducati Panigale V4 S", "https://www.1000ps.de/testbericht/panigale",
			`<p class="card-text">Rennstrecke <img src="https://cdn.1000ps.de/p.jpg"/></p>`,
			time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		mustReview(t, "BMW R 1300 GS & Co", "https://www.1000ps.de/testbericht/gs?a=1&b=2",
			`<p class="card-text">Alpen</p>`,
			time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)),
	}
}

func TestBuilder_Build_ParsesAsRSS(t *testing.T) {
	b := NewBuilder(ChannelMeta{}, "", WithClock(fixedClock), WithLocation(time.UTC))

	out, err := b.Build(sampleReviews(t))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte(`<?xml version="1.0" encoding="UTF-8"?>`)))
	assert.Contains(t, string(out), `<rss version="2.0">`)

	feed, err := gofeed.NewParser().ParseString(string(out))
	require.NoError(t, err)
	assert.Equal(t, "rss", feed.FeedType)
	assert.Equal(t, "2.0", feed.FeedVersion)
	assert.Equal(t, DefaultTitle, feed.Title)
	assert.Equal(t, DefaultLink, feed.Link)
	assert.Equal(t, DefaultDescription, feed.Description)
	require.Len(t, feed.Items, 2)

	assert.Equal(t, "Ducati Panigale V4 S", feed.Items[0].Title)
	assert.Equal(t, "https://www.1000ps.de/testbericht/panigale", feed.Items[0].Link)
	assert.Contains(t, feed.Items[0].Description, `<img src="https://cdn.1000ps.de/p.jpg"/>`)
	require.NotNil(t, feed.Items[0].PublishedParsed)
	assert.True(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).Equal(*feed.Items[0].PublishedParsed))

	assert.Equal(t, "BMW R 1300 GS & Co", feed.Items[1].Title)
	assert.Equal(t, "https://www.1000ps.de/testbericht/gs?a=1&b=2", feed.Items[1].Link)
}

func TestBuilder_Build_Escaping(t *testing.T) {
	b := NewBuilder(ChannelMeta{}, "", WithClock(fixedClock), WithLocation(time.UTC))

	out, err := b.Build(sampleReviews(t))
	require.NoError(t, err)

	doc := string(out)
	assert.Contains(t, doc, "<title>BMW R 1300 GS &amp; Co</title>")
	assert.Contains(t, doc, "<link>https://www.1000ps.de/testbericht/gs?a=1&amp;b=2</link>")
	assert.Contains(t, doc, `<description><![CDATA[<p class="card-text">Alpen</p>]]></description>`)
	assert.Contains(t, doc, "<pubDate>Fri, 15 Mar 2024 00:00:00 +0000</pubDate>")
}

func TestBuilder_Build_ChannelMetaAndLastBuildDate(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	meta := ChannelMeta{Title: "Eigene Liste", Link: "https://example.org", Description: "Test"}
	b := NewBuilder(meta, "feed.xml", WithClock(fixedClock), WithLocation(berlin))

	out, err := b.Build(nil)
	require.NoError(t, err)

	doc := string(out)
	assert.Contains(t, doc, "<title>Eigene Liste</title>")
	assert.Contains(t, doc, "<link>https://example.org</link>")
	assert.Contains(t, doc, "<lastBuildDate>Wed, 20 Mar 2024 09:30:00 +0100</lastBuildDate>")
	assert.Equal(t, "feed.xml", b.FileName())
}

func TestBuilder_Build_Empty(t *testing.T) {
	b := NewBuilder(ChannelMeta{}, "", WithClock(fixedClock), WithLocation(time.UTC))

	out, err := b.Build([]domain.Review{})
	require.NoError(t, err)

	feed, err := gofeed.NewParser().ParseString(string(out))
	require.NoError(t, err)
	assert.Empty(t, feed.Items)
	assert.NotContains(t, string(out), "<item>")
}

func TestBuilder_Build_KeepsOrderAndDuplicates(t *testing.T) {
	b := NewBuilder(ChannelMeta{}, "", WithClock(fixedClock), WithLocation(time.UTC))
	reviews := make([]domain.Review, 0, 30)
	for i := 0; i < 30; i++ {
		reviews = append(reviews, mustReview(t, fmt.Sprintf("Test %02d", i), "https://www.1000ps.de/same",
			"", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	}

	out, err := b.Build(reviews)
	require.NoError(t, err)

	feed, err := gofeed.NewParser().ParseString(string(out))
	require.NoError(t, err)
	require.Len(t, feed.Items, 30)
	for i, item := range feed.Items {
		assert.Equal(t, fmt.Sprintf("Test %02d", i), item.Title)
	}
}

func TestBuilder_Build_Idempotent(t *testing.T) {
	calls := 0
	clock := func() time.Time {
		calls++
		return buildTime.Add(time.Duration(calls) * time.Hour)
	}
	b := NewBuilder(ChannelMeta{}, "", WithClock(clock), WithLocation(time.UTC))

	first, err := b.Build(sampleReviews(t))
	require.NoError(t, err)
	second, err := b.Build(sampleReviews(t))
	require.NoError(t, err)

	assert.NotEqual(t, string(first), string(second))
	assert.Equal(t, withoutLastBuildDate(string(first)), withoutLastBuildDate(string(second)))
}

func TestBuilder_Defaults(t *testing.T) {
	b := NewBuilder(ChannelMeta{}, "")

	assert.Equal(t, DefaultFileName, b.FileName())
	assert.Equal(t, time.Local, b.loc)
}

func withoutLastBuildDate(doc string) string {
	lines := strings.Split(doc, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !strings.Contains(line, "<lastBuildDate>") {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
