package apps

import (
	"context"

	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/navigation"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/services"
)

const viewSmartLinkList = "linking:smart_link_list"

var (
	linkSmartLinkInstancesForDocument = &navigation.Link{
		Name: "linking:smart_link_instances_for_document", Text: "Smart links", View: "/api/documents/:id/smart_links",
		Permissions: []*permissions.Permission{services.PermissionSmartLinkInstanceView},
	}
	linkSmartLinkList = &navigation.Link{
		Name: viewSmartLinkList, Text: "Smart links", View: "/api/smart_links",
		Permissions: []*permissions.Permission{services.PermissionSmartLinkView},
	}
	linkSmartLinkCreate = &navigation.Link{
		Name: "linking:smart_link_create", Text: "Create new smart link", View: "/api/smart_links", Method: "POST",
		Permissions: []*permissions.Permission{services.PermissionSmartLinkCreate},
	}
	linkSmartLinkConditions = &navigation.Link{
		Name: "linking:smart_link_condition_list", Text: "Conditions", View: "/api/smart_links/:id/conditions",
		Permissions: []*permissions.Permission{services.PermissionSmartLinkEdit},
	}
	linkSmartLinkEdit = &navigation.Link{
		Name: "linking:smart_link_edit", Text: "Edit", View: "/api/smart_links/:id", Method: "PATCH",
		Permissions: []*permissions.Permission{services.PermissionSmartLinkEdit},
	}
	linkSmartLinkDelete = &navigation.Link{
		Name: "linking:smart_link_delete", Text: "Delete", View: "/api/smart_links/:id", Method: "DELETE",
		Permissions: []*permissions.Permission{services.PermissionSmartLinkDelete},
	}
)

func (a *Apps) readyLinking() error {
	permissions.RegisterModel(models.ContentTypeSmartLink,
		services.PermissionSmartLinkView, services.PermissionSmartLinkEdit, services.PermissionSmartLinkDelete)
	permissions.RegisterModel(models.ContentTypeDocument,
		services.PermissionSmartLinkInstanceView)
	permissions.RegisterInheritance(models.ContentTypeSmartLinkCondition, conditionParent)

	facet, _, object, secondary, tools := a.menus()
	facet.BindLinks([]*navigation.Link{linkSmartLinkInstancesForDocument}, []string{models.ContentTypeDocument}, 0)
	object.BindLinks(
		[]*navigation.Link{linkSmartLinkConditions, linkSmartLinkEdit, linkSmartLinkDelete},
		[]string{models.ContentTypeSmartLink},
		0,
	)
	secondary.BindLinks([]*navigation.Link{linkSmartLinkList, linkSmartLinkCreate}, []string{viewSmartLinkList}, 0)
	tools.BindLinks([]*navigation.Link{linkSmartLinkList}, nil, 0)
	return nil
}

// conditionParent resolves a smart link condition to its smart link
func conditionParent(ctx context.Context, db *gorm.DB, objectID uint64) (string, uint64, error) {
	var condition models.SmartLinkCondition
	if err := db.WithContext(ctx).Select("id", "smart_link_id").First(&condition, objectID).Error; err != nil {
		return "", 0, err
	}
	return models.ContentTypeSmartLink, condition.SmartLinkID, nil
}
