package handlers

import (
	"errors"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/types"
	"github.com/localnerve/docsdb/internal/utils"
)

// DocumentHandler handles the document type and document routes
type DocumentHandler struct {
	Documents *services.DocumentService
	Checker   *permissions.Checker
}

// DocumentTypeInput is the body of a new document type
type DocumentTypeInput struct {
	Label string `json:"label"`
}

// ListDocumentTypes handles GET /api/document_types
// @Summary List document types
// @Tags Documents
// @Produce json
// @Success 200 {object} utils.ListResponseStruct[models.DocumentType]
// @Security CookieAuth
// @Router /document_types [get]
func (h *DocumentHandler) ListDocumentTypes(c *fiber.Ctx) error {
	docTypes, err := h.Documents.ListDocumentTypes(c.UserContext())
	if err != nil {
		return err
	}

	visible := make([]models.DocumentType, 0, len(docTypes))
	for i := range docTypes {
		err := h.Checker.CheckAccess(c.UserContext(), currentUser(c), services.PermissionDocumentTypeView, &docTypes[i])
		if errors.Is(err, permissions.ErrPermissionDenied) {
			continue
		}
		if err != nil {
			return err
		}
		visible = append(visible, docTypes[i])
	}
	return utils.ListResponse(c, visible)
}

// CreateDocumentType handles POST /api/document_types
// @Summary Create a document type
// @Description Creating a document type also creates its parsing settings
// @Tags Documents
// @Accept json
// @Produce json
// @Param body body DocumentTypeInput true "Document type"
// @Success 201 {object} models.DocumentType
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /document_types [post]
func (h *DocumentHandler) CreateDocumentType(c *fiber.Ctx) error {
	if err := h.Checker.CheckPermissions(c.UserContext(), currentUser(c), services.PermissionDocumentTypeCreate); err != nil {
		return err
	}

	var input DocumentTypeInput
	if err := bodyParser(c, &input); err != nil {
		return err
	}
	docType, err := h.Documents.CreateDocumentType(c.UserContext(), input.Label)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, docType, fiber.StatusCreated)
}

// CreateDocument handles POST /api/documents
// @Summary Upload a new document
// @Description Creates the document, its first version and the version's pages
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file"
// @Param document_type_id formData int true "Document type id"
// @Param label formData string false "Label, defaults to the file name"
// @Param description formData string false "Description"
// @Param language formData string false "Language code"
// @Param comment formData string false "Version comment"
// @Success 201 {object} models.Document
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /documents [post]
func (h *DocumentHandler) CreateDocument(c *fiber.Ctx) error {
	upload, err := readUpload(c)
	if err != nil {
		return err
	}

	input := services.NewDocumentInput{
		Label:       c.FormValue("label"),
		Description: c.FormValue("description"),
		Language:    c.FormValue("language"),
		Upload:      *upload,
	}
	if raw := c.FormValue("document_type_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			verr := &services.ValidationError{}
			verr.Add("document_type_id", "A valid integer is required.")
			return verr
		}
		input.DocumentTypeID = id
	}

	// document_create is granted per document type
	if input.DocumentTypeID != 0 {
		docType, err := h.Documents.GetDocumentType(c.UserContext(), input.DocumentTypeID)
		if err == nil {
			err = h.Checker.CheckAccess(c.UserContext(), currentUser(c), services.PermissionDocumentCreate, docType)
		}
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			return err
		}
	} else if err := h.Checker.CheckPermissions(c.UserContext(), currentUser(c), services.PermissionDocumentCreate); err != nil {
		return err
	}

	doc, _, err := h.Documents.CreateDocument(c.UserContext(), actorID(c), input)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, doc, fiber.StatusCreated)
}

// GetDocument handles GET /api/documents/:id
// @Summary Get a document
// @Tags Documents
// @Produce json
// @Param id path int true "Document id"
// @Success 200 {object} models.Document
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	doc, err := h.document(c, services.PermissionDocumentView)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, doc, fiber.StatusOK)
}

// CreateVersion handles POST /api/documents/:id/versions
// @Summary Upload a new version of a document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Document id"
// @Param file formData file true "Document file"
// @Param comment formData string false "Version comment"
// @Success 201 {object} models.DocumentVersion
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /documents/{id}/versions [post]
func (h *DocumentHandler) CreateVersion(c *fiber.Ctx) error {
	doc, err := h.document(c, services.PermissionDocumentNewVersion)
	if err != nil {
		return err
	}
	upload, err := readUpload(c)
	if err != nil {
		return err
	}

	version, err := h.Documents.NewVersion(c.UserContext(), actorID(c), doc, *upload)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, version, fiber.StatusCreated)
}

func (h *DocumentHandler) document(c *fiber.Ctx, perm *permissions.Permission) (*models.Document, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	doc, err := h.Documents.GetDocument(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if err := h.Checker.CheckAccess(c.UserContext(), currentUser(c), perm, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// readUpload reads the multipart "file" field
func readUpload(c *fiber.Ctx) (*services.Upload, error) {
	header, err := c.FormFile("file")
	if err != nil {
		verr := &services.ValidationError{}
		verr.Add("file", "No file was submitted.")
		return nil, verr
	}

	f, err := header.Open()
	if err != nil {
		return nil, types.NewBadRequest("Unable to read the submitted file", "validation")
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, types.NewBadRequest("Unable to read the submitted file", "validation")
	}
	return &services.Upload{
		FileName: header.Filename,
		MimeType: header.Header.Get(fiber.HeaderContentType),
		Content:  content,
		Comment:  c.FormValue("comment"),
	}, nil
}
