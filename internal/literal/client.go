// Package literal is a client for the book-tracking GraphQL API.
//
// Every operation posts one fixed document plus variables to the single
// endpoint and returns the matching field of the data payload. Errors are
// returned as-is; callers decide whether to swallow them.
package literal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"muses/internal/upstream"
)

const DefaultEndpoint = "https://literal.club/graphql/"

var (
	ErrUnauthenticated = errors.New("literal: login required")
	ErrEmptyData       = errors.New("literal: response has no data")
	ErrGraphQL         = errors.New("literal: graphql error")
)

// GraphQLError carries the messages of a response's errors array.
type GraphQLError struct {
	Operation string
	Messages  []string
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("literal: %s: %s", e.Operation, strings.Join(e.Messages, "; "))
}

func (e *GraphQLError) Is(target error) bool {
	return target == ErrGraphQL
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type Client struct {
	endpoint string
	http     *upstream.Client

	mu    sync.RWMutex
	token string
}

func NewClient(endpoint string, httpClient *upstream.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// Token returns the session token from the last successful Login.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) execute(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	if variables == nil {
		variables = map[string]any{}
	}
	header := http.Header{}
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	var resp response
	if err := c.http.PostJSON(ctx, c.endpoint, header, request{Query: query, Variables: variables}, &resp); err != nil {
		return fmt.Errorf("literal: %s: %w", operation, err)
	}
	if len(resp.Errors) > 0 {
		gqlErr := &GraphQLError{Operation: operation}
		for _, e := range resp.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		return gqlErr
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return fmt.Errorf("%w (%s)", ErrEmptyData, operation)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("literal: %s: decoding data: %w", operation, err)
	}
	return nil
}

func (c *Client) requireToken(operation string) error {
	if c.Token() == "" {
		return fmt.Errorf("%w (%s)", ErrUnauthenticated, operation)
	}
	return nil
}

// Login exchanges credentials for a session token, which is attached as a
// bearer header to every later call on this client.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: missing credentials", ErrUnauthenticated)
	}
	var data struct {
		Login *LoginResult `json:"login"`
	}
	if err := c.execute(ctx, "login", loginMutation, map[string]any{"email": email, "password": password}, &data); err != nil {
		return nil, err
	}
	if data.Login == nil || data.Login.Token == "" {
		return nil, fmt.Errorf("%w: login returned no token", ErrUnauthenticated)
	}
	c.mu.Lock()
	c.token = data.Login.Token
	c.mu.Unlock()
	return data.Login, nil
}

func (c *Client) GetMyReadingStates(ctx context.Context) ([]ReadingState, error) {
	if err := c.requireToken("myReadingStates"); err != nil {
		return nil, err
	}
	var data struct {
		MyReadingStates []ReadingState `json:"myReadingStates"`
	}
	if err := c.execute(ctx, "myReadingStates", myReadingStatesQuery, nil, &data); err != nil {
		return nil, err
	}
	return data.MyReadingStates, nil
}

func (c *Client) UpdateReadingState(ctx context.Context, bookID string, status ReadingStatus) (*ReadingState, error) {
	if err := c.requireToken("updateReadingState"); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("literal: invalid reading status %q", status)
	}
	var data struct {
		UpdateReadingState *ReadingState `json:"updateReadingState"`
	}
	vars := map[string]any{"bookId": bookID, "readingStatus": status}
	if err := c.execute(ctx, "updateReadingState", updateReadingStateMutation, vars, &data); err != nil {
		return nil, err
	}
	return data.UpdateReadingState, nil
}

func (c *Client) GetMyBooks(ctx context.Context) ([]Book, error) {
	if err := c.requireToken("myBooks"); err != nil {
		return nil, err
	}
	var data struct {
		MyBooks []Book `json:"myBooks"`
	}
	if err := c.execute(ctx, "myBooks", myBooksQuery, nil, &data); err != nil {
		return nil, err
	}
	return data.MyBooks, nil
}

// GetHighlights lists moments on a book, optionally restricted to one handle.
func (c *Client) GetHighlights(ctx context.Context, bookID, handle string) ([]Highlight, error) {
	vars := map[string]any{"bookId": bookID, "handle": nil}
	if handle != "" {
		vars["handle"] = handle
	}
	var data struct {
		Moments []Highlight `json:"momentsByHandleAndBookId"`
	}
	if err := c.execute(ctx, "momentsByHandleAndBookId", highlightsQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.Moments, nil
}

func (c *Client) GetReadDates(ctx context.Context, bookID, profileID string) ([]ReadDate, error) {
	var data struct {
		ReadDates []ReadDate `json:"getReadDates"`
	}
	vars := map[string]any{"bookId": bookID, "profileId": profileID}
	if err := c.execute(ctx, "getReadDates", readDatesQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.ReadDates, nil
}

func reviewVars(in ReviewInput) map[string]any {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{"text": in.Text, "spoiler": in.Spoiler, "rating": in.Rating, "tags": tags}
}

func (c *Client) CreateReview(ctx context.Context, bookID string, in ReviewInput) (*Review, error) {
	if err := c.requireToken("createReview"); err != nil {
		return nil, err
	}
	vars := reviewVars(in)
	vars["bookId"] = bookID
	var data struct {
		CreateReview *Review `json:"createReview"`
	}
	if err := c.execute(ctx, "createReview", createReviewMutation, vars, &data); err != nil {
		return nil, err
	}
	return data.CreateReview, nil
}

func (c *Client) UpdateReview(ctx context.Context, reviewID string, in ReviewInput) (*Review, error) {
	if err := c.requireToken("updateReview"); err != nil {
		return nil, err
	}
	vars := reviewVars(in)
	vars["id"] = reviewID
	var data struct {
		UpdateReview *Review `json:"updateReview"`
	}
	if err := c.execute(ctx, "updateReview", updateReviewMutation, vars, &data); err != nil {
		return nil, err
	}
	return data.UpdateReview, nil
}

func (c *Client) CreateHighlight(ctx context.Context, in HighlightInput) (*Highlight, error) {
	if err := c.requireToken("createMoment"); err != nil {
		return nil, err
	}
	vars := map[string]any{
		"bookId":  in.BookID,
		"note":    in.Note,
		"quote":   in.Quote,
		"spoiler": in.Spoiler,
		"where":   in.Where,
	}
	var data struct {
		CreateMoment *Highlight `json:"createMoment"`
	}
	if err := c.execute(ctx, "createMoment", createMomentMutation, vars, &data); err != nil {
		return nil, err
	}
	return data.CreateMoment, nil
}

func (c *Client) GetShelfBySlug(ctx context.Context, slug string) (*Shelf, error) {
	var data struct {
		Shelf *Shelf `json:"shelf"`
	}
	if err := c.execute(ctx, "getShelfBySlug", shelfBySlugQuery, map[string]any{"shelfSlug": slug}, &data); err != nil {
		return nil, err
	}
	return data.Shelf, nil
}

func (c *Client) GetShelvesByProfileID(ctx context.Context, profileID string, limit, offset int) ([]Shelf, error) {
	var data struct {
		Shelves []Shelf `json:"getShelvesByProfileId"`
	}
	vars := map[string]any{"profileId": profileID, "limit": limit, "offset": offset}
	if err := c.execute(ctx, "getShelvesByProfileId", shelvesByProfileQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.Shelves, nil
}

func (c *Client) GetBooksByReadingStateAndProfile(ctx context.Context, limit, offset int, status ReadingStatus, profileID string) ([]Book, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("literal: invalid reading status %q", status)
	}
	var data struct {
		Books []Book `json:"booksByReadingStateAndProfile"`
	}
	vars := map[string]any{"limit": limit, "offset": offset, "readingStatus": status, "profileId": profileID}
	if err := c.execute(ctx, "booksByReadingStateAndProfile", booksByReadingStateQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.Books, nil
}

func (c *Client) GetProfileByHandle(ctx context.Context, handle string) (*Profile, error) {
	var data struct {
		Profile *Profile `json:"profile"`
	}
	if err := c.execute(ctx, "getProfileParts", profileByHandleQuery, map[string]any{"handle": handle}, &data); err != nil {
		return nil, err
	}
	return data.Profile, nil
}

func (c *Client) GetBookByISBN(ctx context.Context, isbn13 string) (*Book, error) {
	var data struct {
		Book *Book `json:"book"`
	}
	if err := c.execute(ctx, "GetBookByIsbn", bookByISBNQuery, map[string]any{"isbn13": isbn13}, &data); err != nil {
		return nil, err
	}
	return data.Book, nil
}
