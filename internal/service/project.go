package service

import (
	"context"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/kaia-invest/kaia-core/internal/apperrors"
	"github.com/kaia-invest/kaia-core/internal/httpclient"
	"github.com/kaia-invest/kaia-core/internal/model"
	"github.com/kaia-invest/kaia-core/internal/session"
)

// ProjectImageField is the multipart field carrying a project image.
const ProjectImageField = "image"

const defaultImageName = "image.jpg"

// Image is a file attached to a project create.
type Image struct {
	// Name is a path or file name; only its last segment is sent.
	Name        string
	ContentType string
	Content     []byte
}

// ProjectService manages /projects/.
type ProjectService struct {
	res     resource[model.Project]
	session *session.Store
}

// NewProjectService creates the project client. sess fills the owner of
// created projects and may be nil.
func NewProjectService(client *httpclient.Client, sess *session.Store) *ProjectService {
	return &ProjectService{
		res: resource[model.Project]{
			client:     client,
			name:       "projects",
			path:       "/projects/",
			listFields: []string{"projects"},
			fromWire:   model.ProjectFromWire,
			toWire:     model.ProjectToWire,
			msgs: messages{
				list:   "Failed to load projects",
				get:    "Failed to load project",
				create: "Failed to create project",
				update: "Failed to update project",
				delete: "Failed to delete project",
			},
		},
		session: sess,
	}
}

// List returns all projects.
func (s *ProjectService) List(ctx context.Context, opts ListOptions) ([]model.Project, error) {
	return s.res.list(ctx, s.res.path, opts)
}

// Get returns one project.
func (s *ProjectService) Get(ctx context.Context, id int64) (model.Project, error) {
	return s.res.get(ctx, id)
}

// Create submits p as JSON, owned by the logged-in user when known.
func (s *ProjectService) Create(ctx context.Context, p model.Project) (model.Project, error) {
	return s.res.create(ctx, s.withOwner(ctx, p))
}

// CreateWithImage submits p as a multipart form with img attached under
// ProjectImageField. A nil img sends the form without a file.
func (s *ProjectService) CreateWithImage(ctx context.Context, p model.Project, img *Image) (model.Project, error) {
	p = s.withOwner(ctx, p)

	form := &httpclient.Multipart{Fields: model.ProjectToWire(p)}
	if img != nil {
		form.Files = append(form.Files, imagePart(img))
	}

	resp, err := s.res.client.Do(ctx, httpclient.Request{
		Method:    http.MethodPost,
		Path:      s.res.path,
		Multipart: form,
		Resource:  s.res.name,
		Fallback:  s.res.msgs.create,
	})
	if err != nil {
		return model.Project{}, err
	}
	return s.res.decodeOr(resp, p), nil
}

// Update replaces a saved project.
func (s *ProjectService) Update(ctx context.Context, p model.Project) (model.Project, error) {
	if p.ID == nil || *p.ID == 0 {
		return model.Project{}, apperrors.MissingID(s.res.name)
	}
	return s.res.update(ctx, *p.ID, p)
}

// Delete removes a project. The API answers 200 or 204.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	return s.res.delete(ctx, id)
}

func (s *ProjectService) withOwner(ctx context.Context, p model.Project) model.Project {
	if s.session == nil {
		return p
	}
	u, err := s.session.GetProfile(ctx)
	if err != nil || u.ID == 0 {
		return p
	}
	return p.WithOwner(u.ID)
}

func imagePart(img *Image) httpclient.FilePart {
	name := path.Base(strings.ReplaceAll(img.Name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = defaultImageName
	}
	ct := img.ContentType
	if ct == "" {
		ct = mime.TypeByExtension(path.Ext(name))
	}
	if ct == "" {
		ct = "image/jpeg"
	}
	return httpclient.FilePart{
		Field:       ProjectImageField,
		Filename:    name,
		ContentType: ct,
		Content:     img.Content,
	}
}
