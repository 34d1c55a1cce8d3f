package intake

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// CaptureRequest is the upload payload. FolderID may be a string, a number
// or null.
type CaptureRequest struct {
	Body struct {
		Image    string `json:"image,omitempty" doc:"JPEG data URI or bare base64"`
		Title    string `json:"title,omitempty" example:"Invoice March" doc:"Document title"`
		FolderID any    `json:"folder_id,omitempty" doc:"Target folder id, empty or null for the root"`
	}
}

// CaptureResult mirrors the save endpoint contract.
type CaptureResult struct {
	Success     bool   `json:"success" doc:"Whether the document was stored"`
	DocumentID  string `json:"document_id,omitempty" doc:"Id of the stored document"`
	RedirectURL string `json:"redirect_url,omitempty" example:"/documents/42" doc:"Where the client should go next"`
	Error       string `json:"error,omitempty" doc:"Failure reason"`
}

// CaptureResponse carries its own status so failures keep the
// {success:false,error} shape.
type CaptureResponse struct {
	Status int
	Body   CaptureResult
}

// DocumentRequest addresses one stored document.
type DocumentRequest struct {
	ID string `path:"id" doc:"Document id"`
}

// DocumentResponse is a stored document's metadata.
type DocumentResponse struct {
	Body Document
}

// ImageResponse is raw JPEG data.
type ImageResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// Path is where the save endpoint is served.
const Path = "/scanner/capture"

// Register mounts the intake operations on api.
func Register(api huma.API, store *Store) {
	huma.Register(api, huma.Operation{
		OperationID:  "intake-capture",
		Method:       http.MethodPost,
		Path:         Path,
		Summary:      "Receive scan",
		Description:  "Store a scanned JPEG and its thumbnail and return the document's URL",
		Tags:         []string{"intake"},
		MaxBodyBytes: MaxBodyBytes,
		Errors:       []int{400, 500},
	}, func(ctx context.Context, input *CaptureRequest) (*CaptureResponse, error) {
		doc, err := store.Ingest(Submission{
			Image:    input.Body.Image,
			Title:    input.Body.Title,
			FolderID: normalizeFolderID(input.Body.FolderID),
		})
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrMissingImage) || errors.Is(err, ErrInvalidImage) {
				status = http.StatusBadRequest
			} else {
				store.logger.Error("Failed to store scan", "error", err)
			}
			return &CaptureResponse{
				Status: status,
				Body:   CaptureResult{Success: false, Error: err.Error()},
			}, nil
		}

		return &CaptureResponse{
			Status: http.StatusOK,
			Body: CaptureResult{
				Success:     true,
				DocumentID:  doc.ID,
				RedirectURL: doc.RedirectURL(),
			},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-document",
		Method:      http.MethodGet,
		Path:        "/documents/{id}",
		Summary:     "Get document",
		Description: "Metadata of a received document",
		Tags:        []string{"intake"},
		Errors:      []int{404},
	}, func(ctx context.Context, input *DocumentRequest) (*DocumentResponse, error) {
		doc, err := store.Get(input.ID)
		if err != nil {
			return nil, huma.Error404NotFound("Document not found")
		}
		return &DocumentResponse{Body: doc}, nil
	})

	registerImage(api, store, "get-document-image", "/documents/{id}/image", false)
	registerImage(api, store, "get-document-thumbnail", "/documents/{id}/thumbnail", true)
}

func registerImage(api huma.API, store *Store, id, path string, thumbnail bool) {
	huma.Register(api, huma.Operation{
		OperationID: id,
		Method:      http.MethodGet,
		Path:        path,
		Summary:     "Get document image",
		Tags:        []string{"intake"},
		Errors:      []int{404, 500},
	}, func(ctx context.Context, input *DocumentRequest) (*ImageResponse, error) {
		data, err := store.ReadImage(input.ID, thumbnail)
		if errors.Is(err, ErrNotFound) {
			return nil, huma.Error404NotFound("Document not found")
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to read document image", err)
		}
		return &ImageResponse{ContentType: "image/jpeg", Body: data}, nil
	})
}

// normalizeFolderID maps "", null and missing to nil and numbers to their
// decimal form.
func normalizeFolderID(v any) *string {
	var s string
	switch id := v.(type) {
	case nil:
		return nil
	case string:
		s = id
	case float64:
		s = strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		s = strconv.Itoa(id)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}
