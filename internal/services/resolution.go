package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"gorm.io/hints"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/permissions"
)

// predicate tests a foreign document value against a rendered expression
type predicate func(value string) bool

// binary adapts a comparison of value and expected into a predicate builder
func binary(fn func(value, expected string) bool) func(expected string) predicate {
	return func(expected string) predicate {
		return func(value string) bool { return fn(value, expected) }
	}
}

// operators maps the lookup names accepted by smart link conditions to a
// builder of their predicate. Builders run once per condition evaluation.
var operators = map[string]func(expected string) predicate{
	"exact":       binary(func(v, e string) bool { return v == e }),
	"iexact":      binary(strings.EqualFold),
	"contains":    binary(strings.Contains),
	"icontains":   binary(func(v, e string) bool { return strings.Contains(strings.ToLower(v), strings.ToLower(e)) }),
	"in":          binary(inList),
	"gt":          binary(func(v, e string) bool { return compare(v, e) > 0 }),
	"gte":         binary(func(v, e string) bool { return compare(v, e) >= 0 }),
	"lt":          binary(func(v, e string) bool { return compare(v, e) < 0 }),
	"lte":         binary(func(v, e string) bool { return compare(v, e) <= 0 }),
	"startswith":  binary(strings.HasPrefix),
	"istartswith": binary(func(v, e string) bool { return strings.HasPrefix(strings.ToLower(v), strings.ToLower(e)) }),
	"endswith":    binary(strings.HasSuffix),
	"iendswith":   binary(func(v, e string) bool { return strings.HasSuffix(strings.ToLower(v), strings.ToLower(e)) }),
	"regex":       func(e string) predicate { return regexPredicate(e, false) },
	"iregex":      func(e string) predicate { return regexPredicate(e, true) },
}

// IsOperator reports whether name is a supported condition operator
func IsOperator(name string) bool {
	_, ok := operators[name]
	return ok
}

// Operators returns the supported operator names, sorted
func Operators() []string {
	names := make([]string, 0, len(operators))
	for name := range operators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func inList(value, expected string) bool {
	for _, item := range strings.Split(expected, ",") {
		if strings.TrimSpace(item) == value {
			return true
		}
	}
	return false
}

// compare orders numerically when both sides are numbers
func compare(a, b string) int {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

// regexPredicate compiles pattern once. An invalid pattern matches nothing.
func regexPredicate(pattern string, insensitive bool) predicate {
	if insensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		logrus.WithField("pattern", pattern).WithError(err).Warn("invalid smart link condition regex")
		return func(string) bool { return false }
	}
	return re.MatchString
}

func templateFuncs(data map[string]interface{}) template.FuncMap {
	raw, _ := json.Marshal(data)
	return template.FuncMap{
		// get reads a gjson path, e.g. {{ get "document.document_type.label" }}
		"get": func(path string) string {
			return gjson.GetBytes(raw, path).String()
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"trim":  strings.TrimSpace,
	}
}

func parseExpression(expression string) (*template.Template, error) {
	return template.New("expression").
		Option("missingkey=zero").
		Funcs(templateFuncs(nil)).
		Parse(expression)
}

func renderTemplate(expression string, data map[string]interface{}) (string, error) {
	tmpl, err := parseExpression(expression)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Funcs(templateFuncs(data)).Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

// TemplateContext builds the data smart link templates are rendered with:
// the document's own fields plus every registered document attribute,
// under the "document" key.
func (s *LinkingService) TemplateContext(ctx context.Context, doc *models.Document) map[string]interface{} {
	raw, _ := json.Marshal(doc)
	document, ok := gjson.ParseBytes(raw).Value().(map[string]interface{})
	if !ok {
		document = map[string]interface{}{}
	}
	for name, value := range s.catalog.Context(ctx, s.db, models.ContentTypeDocument, doc) {
		document[name] = value
	}
	return map[string]interface{}{"document": document}
}

// DynamicLabel renders the smart link label for doc. Links without a
// dynamic label use their label.
func (s *LinkingService) DynamicLabel(ctx context.Context, link *models.SmartLink, doc *models.Document) string {
	if link.DynamicLabel == "" {
		return link.Label
	}
	label, err := renderTemplate(link.DynamicLabel, s.TemplateContext(ctx, doc))
	if err != nil {
		return fmt.Sprintf("Error generating dynamic label; %s", err)
	}
	return label
}

// ResolvedSmartLink is a smart link that applies to a document
type ResolvedSmartLink struct {
	SmartLink models.SmartLink
	Label     string
}

// SmartLinksForDocument returns the enabled smart links bound to the
// document's type that the user may view.
func (s *LinkingService) SmartLinksForDocument(ctx context.Context, user *permissions.User, doc *models.Document) ([]ResolvedSmartLink, error) {
	q := s.db.WithContext(ctx).Model(&models.SmartLink{}).
		Where("enabled = ?", true).
		Where("id IN (?)", s.db.Table("linking_smart_link_document_types").
			Select("smart_link_id").
			Where("document_type_id = ?", doc.DocumentTypeID))

	q, err := s.checker.FilterAccessible(ctx, user, PermissionSmartLinkView, models.ContentTypeSmartLink, q, "id")
	if err != nil {
		return nil, err
	}

	var links []models.SmartLink
	if err := q.Order("label").Find(&links).Error; err != nil {
		return nil, errors.Wrap(err, "list smart links for document")
	}

	resolved := make([]ResolvedSmartLink, 0, len(links))
	for _, link := range links {
		resolved = append(resolved, ResolvedSmartLink{SmartLink: link, Label: s.DynamicLabel(ctx, &link, doc)})
	}
	return resolved, nil
}

// AppliesTo reports whether link is bound to the document's type
func (s *LinkingService) AppliesTo(ctx context.Context, link *models.SmartLink, doc *models.Document) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Table("linking_smart_link_document_types").
		Where("smart_link_id = ? AND document_type_id = ?", link.ID, doc.DocumentTypeID).
		Count(&count).Error
	return count > 0, errors.Wrap(err, "check smart link document type")
}

// LinkedDocumentIDs evaluates the enabled conditions of link for doc and
// returns the ids of the matching documents, excluding doc itself. Each
// condition selects the documents whose field values satisfy the operator
// against the rendered expression; conditions combine in order with their
// inclusion. Without enabled conditions nothing matches.
func (s *LinkingService) LinkedDocumentIDs(ctx context.Context, link *models.SmartLink, doc *models.Document) ([]uint64, error) {
	var conditions []models.SmartLinkCondition
	err := s.db.WithContext(ctx).
		Where("smart_link_id = ? AND enabled = ?", link.ID, true).
		Order("id").
		Find(&conditions).Error
	if err != nil {
		return nil, errors.Wrap(err, "load smart link conditions")
	}
	if len(conditions) == 0 {
		return []uint64{}, nil
	}

	var allIDs []uint64
	err = s.db.WithContext(ctx).Model(&models.Document{}).
		Clauses(hints.CommentBefore("select", "smart_link:"+strconv.FormatUint(link.ID, 10))).
		Pluck("id", &allIDs).Error
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	universe := mapset.NewThreadUnsafeSet(allIDs...)

	data := s.TemplateContext(ctx, doc)
	var result mapset.Set[uint64]
	for _, condition := range conditions {
		matched, err := s.evaluate(ctx, condition, data)
		if err != nil {
			return nil, err
		}
		if condition.Negated {
			matched = universe.Difference(matched)
		}

		switch {
		case result == nil:
			result = matched
		case condition.Inclusion == models.InclusionOr:
			result = result.Union(matched)
		default:
			result = result.Intersect(matched)
		}
	}

	result.Remove(doc.ID)
	ids := result.ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *LinkingService) evaluate(ctx context.Context, condition models.SmartLinkCondition, data map[string]interface{}) (mapset.Set[uint64], error) {
	field, ok := s.catalog.Field(models.ContentTypeDocument, condition.ForeignDocumentData)
	if !ok {
		return nil, fmt.Errorf("condition %d: unknown field %s", condition.ID, condition.ForeignDocumentData)
	}
	build, ok := operators[condition.Operator]
	if !ok {
		return nil, fmt.Errorf("condition %d: unknown operator %s", condition.ID, condition.Operator)
	}

	expected, err := renderTemplate(condition.Expression, data)
	if err != nil {
		return nil, errors.Wrapf(err, "condition %d: render expression", condition.ID)
	}
	match := build(expected)

	values, err := field.Values(ctx, s.db, nil)
	if err != nil {
		return nil, err
	}

	matched := mapset.NewThreadUnsafeSet[uint64]()
	for id, docValues := range values {
		for _, value := range docValues {
			if match(value) {
				matched.Add(id)
				break
			}
		}
	}
	return matched, nil
}

// LinkedDocuments resolves link for doc and returns the matching documents
// the user may view.
func (s *LinkingService) LinkedDocuments(ctx context.Context, user *permissions.User, link *models.SmartLink, doc *models.Document) ([]models.Document, error) {
	ids, err := s.LinkedDocumentIDs(ctx, link, doc)
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0, len(ids))
	if len(ids) == 0 {
		return docs, nil
	}

	q, err := s.checker.FilterAccessible(ctx, user, PermissionDocumentView, models.ContentTypeDocument,
		s.db.WithContext(ctx).Model(&models.Document{}).Where("id IN ?", ids), "id")
	if err != nil {
		return nil, err
	}
	err = q.Preload("DocumentType").Order("id").Find(&docs).Error
	return docs, errors.Wrap(err, "load linked documents")
}
