package chat

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind says which generation pipeline a turn belongs to.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Content is the payload of a message: either Text or Image.
type Content interface {
	isContent()
}

// Text is a plain text payload.
type Text string

// Image holds raw image bytes returned by the image backend.
type Image []byte

func (Text) isContent()  {}
func (Image) isContent() {}

// Message represents one turn in the conversation log.
type Message struct {
	ID        string
	Role      Role
	Kind      Kind
	Content   Content
	Timestamp time.Time
}

// Text returns the text payload, or "" when the message carries an image.
func (m Message) Text() string {
	if t, ok := m.Content.(Text); ok {
		return string(t)
	}
	return ""
}

// Image returns the image payload, if any.
func (m Message) Image() ([]byte, bool) {
	img, ok := m.Content.(Image)
	return []byte(img), ok
}

// Turn is the API-ready form of a message handed to a generation backend.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
