package domain

import (
	"encoding/xml"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReview_NormalizesToUTC(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	review, err := NewReview(
		"  BMW R 1300 GS Test  ",
		"https://www.1000ps.de/testbericht/1",
		"<p>text</p>",
		time.Date(2024, 3, 15, 1, 0, 0, 0, berlin),
	)
	require.NoError(t, err)

	assert.Equal(t, "BMW R 1300 GS Test", review.Title())
	assert.Equal(t, time.UTC, review.PubDate().Location())
	assert.Equal(t, "Fri, 15 Mar 2024 00:00:00 +0000", review.PubDateRFC822())
}

func TestNewReview_DateOnly(t *testing.T) {
	review, err := NewReview("t", "https://example.com/t", "", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Fri, 15 Mar 2024 00:00:00 +0000", review.PubDateRFC822())
}

func TestNewReview_RequiresTitleAndLink(t *testing.T) {
	_, err := NewReview(" ", "https://example.com", "", time.Now())
	assert.True(t, errors.Is(err, ErrEmptyTitle))

	_, err = NewReview("title", "", "", time.Now())
	assert.True(t, errors.Is(err, ErrEmptyLink))
}

func TestReview_XML(t *testing.T) {
	review, err := NewReview(
		"Yamaha & <Tracer>",
		"https://www.1000ps.de/testbericht/2?a=1&b=2",
		`<p>Fazit]]>weiter<img src="https://cdn.example.com/a.jpg"/></p>`,
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	fragment, err := review.XML()
	require.NoError(t, err)

	assert.Contains(t, fragment, "<title>Yamaha &amp; &lt;Tracer&gt;</title>")
	assert.Contains(t, fragment, "<link>https://www.1000ps.de/testbericht/2?a=1&amp;b=2</link>")
	assert.Contains(t, fragment, "<![CDATA[<p>Fazit]]]]><![CDATA[>weiter")
	assert.Contains(t, fragment, "<pubDate>Fri, 15 Mar 2024 00:00:00 +0000</pubDate>")

	var decoded Item
	require.NoError(t, xml.Unmarshal([]byte(fragment), &decoded))
	assert.Equal(t, review.Title(), decoded.Title)
	assert.Equal(t, review.Link(), decoded.Link)
	assert.Equal(t, review.Description(), decoded.Description.Text)
}
