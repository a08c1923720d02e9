package models

import "time"

// Team status constants
const (
	StatusUpcoming = "upcoming"
	StatusLive     = "live"
	StatusEnded    = "ended"
)

// Input limits
const (
	MaxCommentLen       = 500
	MaxChatTextLen      = 500
	MaxAuthorLabelLen   = 50
	MaxVoterIdentity    = 128
	MaxTeamNameLen      = 100
	MaxTeamTitleLen     = 200
	DefaultChatLimit    = 50
	MaxChatLimit        = 100
	AnonymousAuthor     = "anonymous"
	GlobalScope         = "global"
	TeamScopePrefix     = "team:"
	VoterIdentityHeader = "X-Voter-Token"
	VoterIdentityCookie = "hv_voter"
)

// Request types

type CastVoteRequest struct {
	TeamID        string `json:"team_id"`
	VoterIdentity string `json:"voter_identity"`
	Comment       string `json:"comment,omitempty"`
}

type VoteStatusRequest struct {
	VoterIdentity string `json:"voter_identity"`
}

type PostMessageRequest struct {
	Text           string `json:"text"`
	AuthorLabel    string `json:"author_label"`
	AuthorIdentity string `json:"author_identity,omitempty"`
}

type CreateTeamRequest struct {
	Name           string   `json:"name"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Problem        string   `json:"problem"`
	Solution       string   `json:"solution"`
	Members        []string `json:"members"`
	TechTags       []string `json:"tech_tags"`
	MediaURL       string   `json:"media_url"`
	EmbedURL       string   `json:"embed_url"`
	Status         string   `json:"status"`
	EditingAllowed bool     `json:"editing_allowed"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type SetEditingRequest struct {
	EditingAllowed bool `json:"editing_allowed"`
}

// Response types

type IdentityResponse struct {
	VoterIdentity string `json:"voter_identity"`
}

type CastVoteResponse struct {
	Team Team `json:"team"`
}

type DuplicateVoteResponse struct {
	Error     string     `json:"error"`
	Message   string     `json:"message"`
	VotedTeam *VotedTeam `json:"voted_team,omitempty"`
}

type TeamsResponse struct {
	Teams []Team `json:"teams"`
}

type MessagesResponse struct {
	Messages []ChatMessage `json:"messages"`
}

type CountResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

type ReconcileResponse struct {
	Corrected int64 `json:"corrected"`
}

// Domain types

type Team struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Problem        string    `json:"problem"`
	Solution       string    `json:"solution"`
	Members        []string  `json:"members"`
	TechTags       []string  `json:"tech_tags"`
	MediaURL       string    `json:"media_url"`
	EmbedURL       string    `json:"embed_url"`
	Hearts         int       `json:"hearts"`
	Comments       []Comment `json:"comments"`
	Status         string    `json:"status"`
	EditingAllowed bool      `json:"editing_allowed"`
	CreatedAt      time.Time `json:"created_at"`
}

type Comment struct {
	Text       string    `json:"text"`
	Author     string    `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
	OriginHash *string   `json:"-"` // Never expose in JSON
}

// VoteRecord is one ledger row.
type VoteRecord struct {
	Seq           int64     `json:"-"`
	TeamID        string    `json:"team_id"`
	VoterIdentity string    `json:"-"` // Never expose in JSON
	OriginHash    string    `json:"-"` // Never expose in JSON
	Comment       *string   `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type VotedTeam struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

type VoteStatus struct {
	HasVoted  bool       `json:"has_voted"`
	VotedTeam *VotedTeam `json:"voted_team,omitempty"`
}

// ChatScope selects the global log (TeamID empty) or one team's log.
type ChatScope struct {
	TeamID string
}

func (s ChatScope) IsGlobal() bool { return s.TeamID == "" }

func (s ChatScope) String() string {
	if s.IsGlobal() {
		return GlobalScope
	}
	return TeamScopePrefix + s.TeamID
}

type ChatMessage struct {
	Seq            int64     `json:"seq"`
	TeamID         *string   `json:"team_id,omitempty"`
	Text           string    `json:"text"`
	AuthorLabel    string    `json:"author_label"`
	AuthorIdentity *string   `json:"-"` // Never expose in JSON
	OriginHash     string    `json:"-"` // Never expose in JSON
	CreatedAt      time.Time `json:"created_at"`
	PostedAgo      string    `json:"posted_ago,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
