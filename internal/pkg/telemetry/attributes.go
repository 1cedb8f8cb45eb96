package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys used for instrumentation.
const (
	AttrSessionID     = attribute.Key("perimap.session_id")
	AttrPerimeterKind = attribute.Key("perimap.perimeter.kind")
	AttrMarkerCount   = attribute.Key("perimap.markers.count")
	AttrVisibleCount  = attribute.Key("perimap.markers.visible")
	AttrEngine        = attribute.Key("perimap.geometry.engine")
	AttrShapeKind     = attribute.Key("perimap.shape.kind")
)
