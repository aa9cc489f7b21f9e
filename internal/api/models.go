package api

import "time"

// Likeable is a server-side resource with a membership list of liking users
type Likeable interface {
	EntityID() string
	Members() []string
}

// User is a platform account
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse is returned by sign-in and sign-up
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// SignInRequest is the sign-in payload
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest is the sign-up payload
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Pet is an adoption listing
type Pet struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Species     string    `json:"species"`
	Breed       string    `json:"breed,omitempty"`
	AgeMonths   int       `json:"age_months,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Photos      []string  `json:"photos,omitempty"`
	Status      string    `json:"status,omitempty"`
	OwnerID     string    `json:"owner_id"`
	Loves       []string  `json:"loves"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p Pet) EntityID() string  { return p.ID }
func (p Pet) Members() []string { return p.Loves }

// PetFilter narrows a listing query
type PetFilter struct {
	Species string
	OwnerID string
	Page    int
	Limit   int
}

// NewPet is the payload for creating a listing
type NewPet struct {
	Name        string   `json:"name"`
	Species     string   `json:"species"`
	Breed       string   `json:"breed,omitempty"`
	AgeMonths   int      `json:"age_months,omitempty"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Photos      []string `json:"photos,omitempty"`
}

// Post is a community photo post
type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name,omitempty"`
	Caption      string    `json:"caption"`
	ImageURL     string    `json:"image_url"`
	Likes        []string  `json:"likes"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p Post) EntityID() string  { return p.ID }
func (p Post) Members() []string { return p.Likes }

// NewPost is the payload for creating a post. ImageURL may be a file key
// returned by UploadImage or a full URL.
type NewPost struct {
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url"`
}

// Comment on a post
type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// UploadURL is a presigned upload target
type UploadURL struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
	ExpiresAt int64  `json:"expires_at"`
}

// ChatToken is the chat-service credential exchanged for the session
type ChatToken struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// ErrorResponse is the backend's error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
