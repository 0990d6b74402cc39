package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/docsdb/internal/apps"
	"github.com/localnerve/docsdb/internal/middleware"
)

// Register mounts every API route on api, which must already authenticate
// the user.
func Register(api fiber.Router, a *apps.Apps) {
	documentHandler := &DocumentHandler{Documents: a.Documents, Checker: a.Checker}
	parsingHandler := &ParsingHandler{
		Documents:  a.Documents,
		Parsing:    a.Parsing,
		Checker:    a.Checker,
		Navigation: a.Navigation,
	}
	linkingHandler := &LinkingHandler{Documents: a.Documents, Linking: a.Linking, Checker: a.Checker}
	searchHandler := &SearchHandler{DB: a.DB, Models: a.Search, Checker: a.Checker}
	navigationHandler := &NavigationHandler{
		Navigation: a.Navigation,
		Checker:    a.Checker,
		Documents:  a.Documents,
		Linking:    a.Linking,
	}
	aclHandler := &ACLHandler{Checker: a.Checker}

	// Documents
	api.Get("/document_types", documentHandler.ListDocumentTypes)
	api.Post("/document_types", documentHandler.CreateDocumentType)
	api.Post("/documents", documentHandler.CreateDocument)
	api.Get("/documents/:id", documentHandler.GetDocument)
	api.Post("/documents/:id/versions", documentHandler.CreateVersion)

	// Parsing
	parsing := api.Group("/parsing")
	parsing.Get("/errors", parsingHandler.ListErrors)
	parsing.Post("/documents/submit", parsingHandler.SubmitDocuments)
	parsing.Get("/documents/:id/content", parsingHandler.GetDocumentContent)
	parsing.Get("/documents/:id/content/download", parsingHandler.DownloadDocumentContent)
	parsing.Get("/documents/:id/errors", parsingHandler.ListDocumentErrors)
	parsing.Post("/documents/:id/submit", parsingHandler.SubmitDocument)
	parsing.Get("/document_pages/:id/content", parsingHandler.GetPageContent)
	parsing.Post("/document_types/:id/submit", parsingHandler.SubmitDocumentType)
	parsing.Get("/document_types/:id/settings", parsingHandler.GetSettings)
	parsing.Put("/document_types/:id/settings", parsingHandler.UpdateSettings)
	parsing.Patch("/document_types/:id/settings", parsingHandler.UpdateSettings)

	// Smart links
	api.Get("/smart_links", linkingHandler.ListSmartLinks)
	api.Post("/smart_links", linkingHandler.CreateSmartLink)
	api.Get("/smart_links/:pk", linkingHandler.GetSmartLink)
	api.Put("/smart_links/:pk", linkingHandler.UpdateSmartLink)
	api.Patch("/smart_links/:pk", linkingHandler.UpdateSmartLink)
	api.Delete("/smart_links/:pk", linkingHandler.DeleteSmartLink)
	api.Get("/smart_links/:pk/conditions", linkingHandler.ListConditions)
	api.Post("/smart_links/:pk/conditions", linkingHandler.CreateCondition)
	api.Get("/smart_links/:pk/conditions/:condition_pk", linkingHandler.GetCondition)
	api.Put("/smart_links/:pk/conditions/:condition_pk", linkingHandler.UpdateCondition)
	api.Patch("/smart_links/:pk/conditions/:condition_pk", linkingHandler.UpdateCondition)
	api.Delete("/smart_links/:pk/conditions/:condition_pk", linkingHandler.DeleteCondition)
	api.Get("/documents/:id/smart_links", linkingHandler.ListDocumentSmartLinks)
	api.Get("/documents/:id/smart_links/:pk/documents", linkingHandler.ListLinkedDocuments)

	// Search and navigation
	api.Get("/search/:model", searchHandler.Search)
	api.Get("/navigation/:menu", navigationHandler.GetMenu)

	// Access control, admin only
	admin := middleware.AuthAdmin()
	api.Get("/permissions", aclHandler.ListPermissions)
	api.Post("/permissions/grants", admin, aclHandler.CreateGrant)
	api.Delete("/permissions/grants", admin, aclHandler.DeleteGrant)
	api.Get("/acls/:content_type/:object_id", admin, aclHandler.GetACL)
	api.Put("/acls/:content_type/:object_id", admin, aclHandler.PutACL)
}
