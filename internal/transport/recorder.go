package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/rpattn/metaemit/internal/domain"
)

// RecordedPost is a Post call captured by a Recorder.
type RecordedPost struct {
	Endpoint string
	Body     any
	Headers  map[string]string
}

// Recorder captures proposals and posts in memory instead of delivering them.
// It backs dry runs.
type Recorder struct {
	mu        sync.Mutex
	proposals []domain.ChangeProposal
	posts     []RecordedPost
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(_ context.Context, proposal domain.ChangeProposal) error {
	if err := proposal.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proposals = append(r.proposals, proposal)
	return nil
}

func (r *Recorder) Post(_ context.Context, endpoint string, body any, headers map[string]string) (*Response, error) {
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, RecordedPost{Endpoint: endpoint, Body: body, Headers: copied})
	return &Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
}

// Proposals returns a copy of the proposals recorded so far.
func (r *Recorder) Proposals() []domain.ChangeProposal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ChangeProposal, len(r.proposals))
	copy(out, r.proposals)
	return out
}

// Posts returns a copy of the posts recorded so far.
func (r *Recorder) Posts() []RecordedPost {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedPost, len(r.posts))
	copy(out, r.posts)
	return out
}
