package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Annany2002/taxacurator/internal/domain"
)

func TestFormatAuthors(t *testing.T) {
	link := func(name string, order int) domain.AuthorLink {
		return domain.AuthorLink{LastName: name, Order: order}
	}
	testCases := []struct {
		name  string
		links []domain.AuthorLink
		want  string
	}{
		{"none", nil, "—"},
		{"one", []domain.AuthorLink{link("Smith", 1)}, "Smith"},
		{"two in author order", []domain.AuthorLink{link("Yamane", 2), link("Smith", 1)}, "Smith & Yamane"},
		{"three", []domain.AuthorLink{link("A", 1), link("B", 2), link("C", 3)}, "A, B & C"},
		{"unresolved researchers skipped", []domain.AuthorLink{link("", 1), link("Smith", 2)}, "Smith"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatAuthors(tc.links))
		})
	}
}

func TestRepositoryLabel(t *testing.T) {
	assert.Equal(t, "NHM — Natural History Museum (London, UK)", RepositoryLabel("NHM", "Natural History Museum", "London", "UK"))
	assert.Equal(t, "NHM (UK)", RepositoryLabel("NHM", "", "", "UK"))
	assert.Equal(t, "Natural History Museum", RepositoryLabel("", "Natural History Museum", "", ""))
}

func TestPublicationLabel(t *testing.T) {
	pub := domain.Record{
		"id":               "pub-1",
		"title_english":    "A new Xus",
		"publication_date": "2023-06-01",
		"volume":           "12",
		"number":           "3",
		"page":             "45-50",
	}
	assert.Equal(t, "[pub-1] A new Xus (2023) — Journal of Xus 12(3): 45-50", PublicationLabel(pub, "Journal of Xus"))
	assert.Equal(t, "[pub-1] A new Xus (2023)", PublicationLabel(pub, ""))
	assert.Equal(t, "—", PublicationLabel(nil, "Journal of Xus"))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2024/03/05 10:20", FormatTimestamp("2024-03-05T10:20:00Z"))
	assert.Equal(t, "2024/03/05 10:20", FormatTimestamp("2024-03-05 10:20:59"))
	assert.Equal(t, "2024/03/05 00:00", FormatTimestamp("2024-03-05"))
	assert.Equal(t, "", FormatTimestamp(""))
	assert.Equal(t, "spring 2024", FormatTimestamp("spring 2024"))
	assert.Equal(t, "1998", PublicationYear("1998"))
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, " Xus  revisited", StripTags("<i>Xus</i> revisited"))
}
