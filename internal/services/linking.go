package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/catalog"
	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/types"
)

// SmartLinkInput is the writable part of a smart link. Nil fields are
// absent from the request.
type SmartLinkInput struct {
	Label               *string           `json:"label"`
	DynamicLabel        *string           `json:"dynamic_label"`
	Enabled             *bool             `json:"enabled"`
	DocumentTypesPKList *types.FlexIDList `json:"document_types_pk_list"`
}

// SmartLinkConditionInput is the writable part of a smart link condition
type SmartLinkConditionInput struct {
	Inclusion           *string `json:"inclusion"`
	ForeignDocumentData *string `json:"foreign_document_data"`
	Operator            *string `json:"operator"`
	Expression          *string `json:"expression"`
	Negated             *bool   `json:"negated"`
	Enabled             *bool   `json:"enabled"`
}

// LinkingService manages smart links and their conditions
type LinkingService struct {
	db        *gorm.DB
	checker   *permissions.Checker
	catalog   *catalog.Registry
	documents *DocumentService
}

// NewLinkingService creates a LinkingService
func NewLinkingService(db *gorm.DB, checker *permissions.Checker, reg *catalog.Registry, documents *DocumentService) *LinkingService {
	return &LinkingService{db: db, checker: checker, catalog: reg, documents: documents}
}

// ListSmartLinks returns the smart links the user may view, ordered by label
func (s *LinkingService) ListSmartLinks(ctx context.Context, user *permissions.User) ([]models.SmartLink, error) {
	q, err := s.checker.FilterAccessible(ctx, user, PermissionSmartLinkView, models.ContentTypeSmartLink,
		s.db.WithContext(ctx).Model(&models.SmartLink{}), "id")
	if err != nil {
		return nil, err
	}

	links := make([]models.SmartLink, 0)
	err = q.Preload("DocumentTypes", func(db *gorm.DB) *gorm.DB { return db.Order("label") }).
		Order("label").
		Find(&links).Error
	return links, errors.Wrap(err, "list smart links")
}

// GetSmartLink loads a smart link with its document types
func (s *LinkingService) GetSmartLink(ctx context.Context, id uint64) (*models.SmartLink, error) {
	var link models.SmartLink
	err := s.db.WithContext(ctx).
		Preload("DocumentTypes", func(db *gorm.DB) *gorm.DB { return db.Order("label") }).
		First(&link, id).Error
	if err != nil {
		return nil, notFound(err, "smart link")
	}
	return &link, nil
}

// CreateSmartLink validates input and creates a smart link
func (s *LinkingService) CreateSmartLink(ctx context.Context, input SmartLinkInput) (*models.SmartLink, error) {
	link := &models.SmartLink{Enabled: true}
	if err := s.applySmartLink(ctx, link, input, false); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("DocumentTypes", "Conditions").Create(link).Error; err != nil {
			return errors.Wrap(err, "create smart link")
		}
		return s.replaceDocumentTypes(tx, link)
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// UpdateSmartLink applies input to link. A partial update leaves absent
// fields unchanged; a full update requires every required field.
func (s *LinkingService) UpdateSmartLink(ctx context.Context, link *models.SmartLink, input SmartLinkInput, partial bool) error {
	if err := s.applySmartLink(ctx, link, input, partial); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(link).Select("label", "dynamic_label", "enabled").Updates(map[string]interface{}{
			"label":         link.Label,
			"dynamic_label": link.DynamicLabel,
			"enabled":       link.Enabled,
		}).Error
		if err != nil {
			return errors.Wrap(err, "update smart link")
		}
		if input.DocumentTypesPKList == nil {
			return nil
		}
		return s.replaceDocumentTypes(tx, link)
	})
}

// DeleteSmartLink removes a smart link with its conditions and access
// control entries.
func (s *LinkingService) DeleteSmartLink(ctx context.Context, link *models.SmartLink) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("smart_link_id = ?", link.ID).Delete(&models.SmartLinkCondition{}).Error; err != nil {
			return errors.Wrap(err, "delete smart link conditions")
		}
		if err := tx.Model(link).Association("DocumentTypes").Clear(); err != nil {
			return errors.Wrap(err, "clear smart link document types")
		}
		if err := tx.Where("content_type = ? AND object_id = ?", link.ContentType(), link.ID).Delete(&models.AccessControlEntry{}).Error; err != nil {
			return errors.Wrap(err, "delete smart link access entries")
		}
		return errors.Wrap(tx.Delete(link).Error, "delete smart link")
	})
}

func (s *LinkingService) applySmartLink(ctx context.Context, link *models.SmartLink, input SmartLinkInput, partial bool) error {
	verr := &ValidationError{}

	if input.Label != nil {
		label := strings.TrimSpace(*input.Label)
		switch {
		case label == "":
			verr.Add("label", "This field may not be blank.")
		case len(label) > 128:
			verr.Add("label", "Ensure this field has no more than 128 characters.")
		default:
			var count int64
			err := s.db.WithContext(ctx).Model(&models.SmartLink{}).
				Where("label = ? AND id <> ?", label, link.ID).
				Count(&count).Error
			if err != nil {
				return errors.Wrap(err, "check smart link label")
			}
			if count > 0 {
				verr.Add("label", "smart link with this label already exists.")
			}
			link.Label = label
		}
	} else if !partial {
		verr.Add("label", "This field is required.")
	}

	if input.DynamicLabel != nil {
		if len(*input.DynamicLabel) > 96 {
			verr.Add("dynamic_label", "Ensure this field has no more than 96 characters.")
		}
		link.DynamicLabel = *input.DynamicLabel
	}
	if input.Enabled != nil {
		link.Enabled = *input.Enabled
	}

	if input.DocumentTypesPKList != nil {
		ids := input.DocumentTypesPKList.Uint64s()
		docTypes := make([]models.DocumentType, 0, len(ids))
		if len(ids) > 0 {
			if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("label").Find(&docTypes).Error; err != nil {
				return errors.Wrap(err, "load document types")
			}
		}
		found := map[uint64]bool{}
		for _, dt := range docTypes {
			found[dt.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				verr.Add("document_types_pk_list", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
			}
		}
		link.DocumentTypes = docTypes
	}

	return verr.OrNil()
}

func (s *LinkingService) replaceDocumentTypes(tx *gorm.DB, link *models.SmartLink) error {
	docTypes := link.DocumentTypes
	if len(docTypes) == 0 {
		return errors.Wrap(tx.Model(link).Association("DocumentTypes").Clear(), "clear smart link document types")
	}
	if err := tx.Model(link).Association("DocumentTypes").Replace(docTypes); err != nil {
		return errors.Wrap(err, "set smart link document types")
	}
	link.DocumentTypes = docTypes
	return nil
}

// ListConditions returns the conditions of a smart link in creation order
func (s *LinkingService) ListConditions(ctx context.Context, link *models.SmartLink) ([]models.SmartLinkCondition, error) {
	conditions := make([]models.SmartLinkCondition, 0)
	err := s.db.WithContext(ctx).Where("smart_link_id = ?", link.ID).Order("id").Find(&conditions).Error
	return conditions, errors.Wrap(err, "list smart link conditions")
}

// GetCondition loads a condition of link; conditions of other smart links
// are not found.
func (s *LinkingService) GetCondition(ctx context.Context, link *models.SmartLink, id uint64) (*models.SmartLinkCondition, error) {
	var condition models.SmartLinkCondition
	err := s.db.WithContext(ctx).Where("smart_link_id = ?", link.ID).First(&condition, id).Error
	if err != nil {
		return nil, notFound(err, "smart link condition")
	}
	return &condition, nil
}

// CreateCondition validates input and adds a condition to link
func (s *LinkingService) CreateCondition(ctx context.Context, link *models.SmartLink, input SmartLinkConditionInput) (*models.SmartLinkCondition, error) {
	condition := &models.SmartLinkCondition{SmartLinkID: link.ID, Inclusion: models.InclusionAnd, Enabled: true}
	if err := s.applyCondition(condition, input, false); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(condition).Error; err != nil {
		return nil, errors.Wrap(err, "create smart link condition")
	}
	return condition, nil
}

// UpdateCondition applies input to condition
func (s *LinkingService) UpdateCondition(ctx context.Context, condition *models.SmartLinkCondition, input SmartLinkConditionInput, partial bool) error {
	if err := s.applyCondition(condition, input, partial); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Model(condition).
		Select("inclusion", "foreign_document_data", "operator", "expression", "negated", "enabled").
		Updates(map[string]interface{}{
			"inclusion":             condition.Inclusion,
			"foreign_document_data": condition.ForeignDocumentData,
			"operator":              condition.Operator,
			"expression":            condition.Expression,
			"negated":               condition.Negated,
			"enabled":               condition.Enabled,
		}).Error
	return errors.Wrap(err, "update smart link condition")
}

// DeleteCondition removes a condition
func (s *LinkingService) DeleteCondition(ctx context.Context, condition *models.SmartLinkCondition) error {
	return errors.Wrap(s.db.WithContext(ctx).Delete(condition).Error, "delete smart link condition")
}

func (s *LinkingService) applyCondition(condition *models.SmartLinkCondition, input SmartLinkConditionInput, partial bool) error {
	verr := &ValidationError{}

	if input.Inclusion != nil {
		if *input.Inclusion != models.InclusionAnd && *input.Inclusion != models.InclusionOr {
			verr.Add("inclusion", fmt.Sprintf("\"%s\" is not a valid choice.", *input.Inclusion))
		}
		condition.Inclusion = *input.Inclusion
	}

	if input.ForeignDocumentData != nil {
		if _, ok := s.catalog.Field(models.ContentTypeDocument, *input.ForeignDocumentData); !ok {
			verr.Add("foreign_document_data", fmt.Sprintf("\"%s\" is not a valid choice.", *input.ForeignDocumentData))
		}
		condition.ForeignDocumentData = *input.ForeignDocumentData
	} else if !partial {
		verr.Add("foreign_document_data", "This field is required.")
	}

	if input.Operator != nil {
		if !IsOperator(*input.Operator) {
			verr.Add("operator", fmt.Sprintf("\"%s\" is not a valid choice.", *input.Operator))
		}
		condition.Operator = *input.Operator
	} else if !partial {
		verr.Add("operator", "This field is required.")
	}

	if input.Expression != nil {
		if strings.TrimSpace(*input.Expression) == "" {
			verr.Add("expression", "This field may not be blank.")
		} else if _, err := parseExpression(*input.Expression); err != nil {
			verr.Add("expression", err.Error())
		}
		condition.Expression = *input.Expression
	} else if !partial {
		verr.Add("expression", "This field is required.")
	}

	if input.Negated != nil {
		condition.Negated = *input.Negated
	}
	if input.Enabled != nil {
		condition.Enabled = *input.Enabled
	}

	return verr.OrNil()
}
