package muses

import (
	"sort"
	"time"

	"muses/internal/goodreads"
	"muses/internal/literal"
)

// Book is the normalized book record shared by the literal and goodreads
// sources. SortDate is derived and used only for ordering.
type Book struct {
	ID       string
	Slug     string
	Title    string
	Subtitle string
	Authors  []string
	Cover    string
	Status   literal.ReadingStatus
	SortDate time.Time
}

func (b Book) Reading() bool { return b.Status == literal.StatusIsReading }

var readDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02"}

func parseReadDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range readDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortDate derives a book's ordering timestamp: now while it is being read,
// otherwise the latest finish date, otherwise the latest start date, otherwise
// the Unix epoch.
func SortDate(status literal.ReadingStatus, dates []literal.ReadDate, now time.Time) time.Time {
	if status == literal.StatusIsReading {
		return now
	}
	var finished, started time.Time
	for _, d := range dates {
		if t, ok := parseReadDate(d.Finished); ok && t.After(finished) {
			finished = t
		}
		if t, ok := parseReadDate(d.Started); ok && t.After(started) {
			started = t
		}
	}
	switch {
	case !finished.IsZero():
		return finished
	case !started.IsZero():
		return started
	}
	return time.Unix(0, 0).UTC()
}

// BooksFromReadingStates normalizes reading states. readDates is keyed by
// book id; a book with no entry falls back to the epoch unless it is being
// read.
func BooksFromReadingStates(states []literal.ReadingState, readDates map[string][]literal.ReadDate, now time.Time) []Book {
	books := make([]Book, 0, len(states))
	for _, st := range states {
		id := StateBookID(st)
		books = append(books, Book{
			ID:       id,
			Slug:     st.Book.Slug,
			Title:    st.Book.Title,
			Subtitle: st.Book.Subtitle,
			Authors:  st.Book.AuthorNames(),
			Cover:    st.Book.Cover,
			Status:   st.Status,
			SortDate: SortDate(st.Status, readDates[id], now),
		})
	}
	return books
}

// StateBookID is the key read dates are fetched and looked up by. The state's
// own bookId wins; the nested book id covers responses that omit it.
func StateBookID(st literal.ReadingState) string {
	if st.BookID != "" {
		return st.BookID
	}
	return st.Book.ID
}

// BooksFromList normalizes scraped shelf rows, which carry no status or dates.
func BooksFromList(rows []goodreads.Book) []Book {
	books := make([]Book, 0, len(rows))
	for _, r := range rows {
		books = append(books, Book{
			Title:   r.Title,
			Authors: r.Authors,
			Cover:   r.Cover,
			Status:  literal.StatusNone,
		})
	}
	return books
}

// SortBooks puts books being read first, then orders by descending SortDate.
// Ties keep their input order.
func SortBooks(books []Book) {
	sort.SliceStable(books, func(i, j int) bool {
		ri, rj := books[i].Reading(), books[j].Reading()
		if ri != rj {
			return ri
		}
		return books[i].SortDate.After(books[j].SortDate)
	})
}

// FilterStatuses keeps reading states whose status is listed. An empty list
// keeps everything.
func FilterStatuses(states []literal.ReadingState, statuses []literal.ReadingStatus) []literal.ReadingState {
	if len(statuses) == 0 {
		return states
	}
	keep := make(map[literal.ReadingStatus]bool, len(statuses))
	for _, s := range statuses {
		keep[s] = true
	}
	out := make([]literal.ReadingState, 0, len(states))
	for _, st := range states {
		if keep[st.Status] {
			out = append(out, st)
		}
	}
	return out
}
