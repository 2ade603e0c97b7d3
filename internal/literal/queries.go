package literal

const bookFields = `
fragment BookParts on Book {
  id
  slug
  title
  subtitle
  description
  isbn10
  isbn13
  language
  pageCount
  publishedDate
  publisher
  cover
  authors {
    id
    name
  }
  gradientColors
}`

const profileFields = `
fragment ProfileParts on Profile {
  id
  handle
  name
  bio
  image
  invitedByProfileId
}`

const readingStateFields = `
fragment ReadingStateParts on ReadingState {
  id
  status
  bookId
  profileId
  createdAt
  book {
    ...BookParts
  }
  profile {
    ...ProfileParts
  }
}` + bookFields + profileFields

const momentFields = `
fragment MomentParts on Moment {
  id
  note
  noteJson
  quote
  quoteJson
  where
  spoiler
  profileId
  bookId
  createdAt
}`

const reviewFields = `
fragment ReviewParts on Review {
  id
  rating
  spoiler
  text
  createdAt
  updatedAt
  tags
}`

const loginMutation = `
mutation login($email: String!, $password: String!) {
  login(email: $email, password: $password) {
    token
    email
    languages
    profile {
      id
      handle
      name
      bio
      image
    }
  }
}`

const myReadingStatesQuery = `
query myReadingStates {
  myReadingStates {
    ...ReadingStateParts
  }
}` + readingStateFields

const updateReadingStateMutation = `
mutation updateReadingState($bookId: String!, $readingStatus: ReadingStatus!) {
  updateReadingState(bookId: $bookId, readingStatus: $readingStatus) {
    ...ReadingStateParts
  }
}` + readingStateFields

const myBooksQuery = `
query myBooks {
  myBooks {
    ...BookParts
  }
}` + bookFields

const highlightsQuery = `
query momentsByHandleAndBookId($bookId: String!, $handle: String) {
  momentsByHandleAndBookId(bookId: $bookId, handle: $handle) {
    ...MomentParts
    profile {
      ...ProfileParts
    }
  }
}` + momentFields + profileFields

const readDatesQuery = `
query getReadDates($bookId: String!, $profileId: String!) {
  getReadDates(bookId: $bookId, profileId: $profileId) {
    id
    started
    finished
    followingStatus
    updatedAt
    createdAt
  }
}`

const createReviewMutation = `
mutation createReview($bookId: String!, $text: String, $spoiler: Boolean!, $rating: Float!, $tags: [String!]) {
  createReview(bookId: $bookId, text: $text, spoiler: $spoiler, rating: $rating, tags: $tags) {
    ...ReviewParts
  }
}` + reviewFields

const updateReviewMutation = `
mutation updateReview($id: String!, $text: String, $spoiler: Boolean!, $rating: Float!, $tags: [String!]) {
  updateReview(id: $id, text: $text, spoiler: $spoiler, rating: $rating, tags: $tags) {
    ...ReviewParts
  }
}` + reviewFields

const createMomentMutation = `
mutation createMoment($note: String, $quote: String, $spoiler: Boolean, $bookId: String!, $where: String) {
  createMoment(note: $note, quote: $quote, spoiler: $spoiler, bookId: $bookId, where: $where) {
    ...MomentParts
  }
}` + momentFields

const shelfBySlugQuery = `
query getShelfBySlug($shelfSlug: String!) {
  shelf(where: { slug: $shelfSlug }) {
    id
    slug
    title
    description
    profileId
    owner {
      ...ProfileParts
    }
    books {
      ...BookParts
    }
  }
}` + profileFields + bookFields

const shelvesByProfileQuery = `
query getShelvesByProfileId($profileId: String!, $limit: Int!, $offset: Int!) {
  getShelvesByProfileId(profileId: $profileId, limit: $limit, offset: $offset) {
    id
    slug
    title
    description
    profileId
    books(take: 3) {
      ...BookParts
    }
  }
}` + bookFields

const booksByReadingStateQuery = `
query booksByReadingStateAndProfile($limit: Int!, $offset: Int!, $readingStatus: ReadingStatus!, $profileId: String!) {
  booksByReadingStateAndProfile(limit: $limit, offset: $offset, readingStatus: $readingStatus, profileId: $profileId) {
    ...BookParts
  }
}` + bookFields

const profileByHandleQuery = `
query getProfileParts($handle: String!) {
  profile(where: { handle: $handle }) {
    ...ProfileParts
  }
}` + profileFields

const bookByISBNQuery = `
query GetBookByIsbn($isbn13: String!) {
  book(where: { isbn13: $isbn13 }) {
    ...BookParts
  }
}` + bookFields
