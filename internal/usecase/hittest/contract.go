package hittest

import domann "github.com/kailas-cloud/annotator/internal/domain/annotation"

// AnnotationSource lists the annotations of a page in store order.
type AnnotationSource interface {
	FilterByPage(page int) []domann.Annotation
}
