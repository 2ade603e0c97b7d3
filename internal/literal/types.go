package literal

// ReadingStatus mirrors the ReadingStatus enum of the book service.
type ReadingStatus string

const (
	StatusWantsToRead ReadingStatus = "WANTS_TO_READ"
	StatusIsReading   ReadingStatus = "IS_READING"
	StatusFinished    ReadingStatus = "FINISHED"
	StatusDropped     ReadingStatus = "DROPPED"
	StatusNone        ReadingStatus = "NONE"
)

// Valid reports whether s is one of the known statuses.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusWantsToRead, StatusIsReading, StatusFinished, StatusDropped, StatusNone:
		return true
	}
	return false
}

type Profile struct {
	ID                 string `json:"id"`
	Handle             string `json:"handle"`
	Name               string `json:"name"`
	Bio                string `json:"bio"`
	Image              string `json:"image"`
	InvitedByProfileID string `json:"invitedByProfileId,omitempty"`
}

type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Book struct {
	ID             string   `json:"id"`
	Slug           string   `json:"slug"`
	Title          string   `json:"title"`
	Subtitle       string   `json:"subtitle,omitempty"`
	Description    string   `json:"description,omitempty"`
	ISBN10         string   `json:"isbn10,omitempty"`
	ISBN13         string   `json:"isbn13,omitempty"`
	Language       string   `json:"language"`
	PageCount      int      `json:"pageCount,omitempty"`
	PublishedDate  string   `json:"publishedDate,omitempty"`
	Publisher      string   `json:"publisher,omitempty"`
	Cover          string   `json:"cover,omitempty"`
	Authors        []Author `json:"authors"`
	GradientColors []string `json:"gradientColors"`
}

// AuthorNames flattens the author list.
func (b Book) AuthorNames() []string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		names = append(names, a.Name)
	}
	return names
}

// ReadingState links one profile to one book.
type ReadingState struct {
	ID        string        `json:"id"`
	Status    ReadingStatus `json:"status"`
	BookID    string        `json:"bookId"`
	ProfileID string        `json:"profileId"`
	CreatedAt string        `json:"createdAt"`
	Book      Book          `json:"book"`
	Profile   *Profile      `json:"profile,omitempty"`
}

type Highlight struct {
	ID        string   `json:"id"`
	Note      string   `json:"note,omitempty"`
	NoteJSON  string   `json:"noteJson,omitempty"`
	Quote     string   `json:"quote,omitempty"`
	QuoteJSON string   `json:"quoteJson,omitempty"`
	Where     string   `json:"where,omitempty"`
	Spoiler   bool     `json:"spoiler"`
	ProfileID string   `json:"profileId"`
	BookID    string   `json:"bookId"`
	CreatedAt string   `json:"createdAt"`
	Profile   *Profile `json:"profile,omitempty"`
}

// ReadDate is one started/finished pair from a profile's read history.
// Dates are ISO-8601 strings; either may be empty.
type ReadDate struct {
	ID              string `json:"id"`
	Started         string `json:"started,omitempty"`
	Finished        string `json:"finished,omitempty"`
	FollowingStatus string `json:"followingStatus"`
	UpdatedAt       string `json:"updatedAt"`
	CreatedAt       string `json:"createdAt"`
}

type Review struct {
	ID        string   `json:"id"`
	Rating    float64  `json:"rating"`
	Spoiler   bool     `json:"spoiler"`
	Text      string   `json:"text,omitempty"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
	Tags      []string `json:"tags"`
}

type Shelf struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	ProfileID   string   `json:"profileId"`
	Owner       *Profile `json:"owner,omitempty"`
	Books       []Book   `json:"books"`
}

type LoginResult struct {
	Token     string   `json:"token"`
	Email     string   `json:"email"`
	Languages []string `json:"languages"`
	Profile   Profile  `json:"profile"`
}

// ReviewInput carries the fields shared by createReview and updateReview.
// A nil Text is sent as null.
type ReviewInput struct {
	Text    *string
	Spoiler bool
	Rating  float64
	Tags    []string
}

// HighlightInput carries the createMoment arguments; nil fields are sent as null.
type HighlightInput struct {
	BookID  string
	Note    *string
	Quote   *string
	Spoiler *bool
	Where   *string
}
