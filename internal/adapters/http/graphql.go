package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/perimap/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the session service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	coordinateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CoordinateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lng": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"lat":     &graphql.Field{Type: graphql.Float},
			"lng":     &graphql.Field{Type: graphql.Float},
			"visible": &graphql.Field{Type: graphql.Boolean},
		},
	})

	perimeterType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Perimeter",
		Fields: graphql.Fields{
			"type":     &graphql.Field{Type: graphql.String},
			"vertices": &graphql.Field{Type: graphql.NewList(coordinateType)},
			"center":   &graphql.Field{Type: coordinateType},
			"radius":   &graphql.Field{Type: graphql.Float},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"session_id": &graphql.Field{Type: graphql.String},
			"markers":    &graphql.Field{Type: graphql.NewList(markerType)},
			"perimeter":  &graphql.Field{Type: perimeterType},
			"active":     &graphql.Field{Type: graphql.Boolean},
			"visible":    &graphql.Field{Type: graphql.Int},
			"total":      &graphql.Field{Type: graphql.Int},
		},
	})

	removeResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RemoveResult",
		Fields: graphql.Fields{
			"removed": &graphql.Field{Type: graphql.Int},
			"session": &graphql.Field{Type: sessionType},
		},
	})

	mapConfigType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapConfig",
		Fields: graphql.Fields{
			"api_key":  &graphql.Field{Type: graphql.String},
			"center":   &graphql.Field{Type: coordinateType},
			"zoom":     &graphql.Field{Type: graphql.Int},
			"landmark": &graphql.Field{Type: graphql.String},
		},
	})

	idArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}
	coordArgs := graphql.FieldConfigArgument{
		"id":  idArg,
		"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "A session with derived marker visibility",
				Args:        graphql.FieldConfigArgument{"id": idArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					v, err := deps.Sessions.View(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return viewToMap(v), nil
				},
			},
			"contains": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Whether a coordinate lies inside the session's perimeter",
				Args:        coordArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.Contains(p.Context, p.Args["id"].(string), coordFromArgs(p.Args))
				},
			},
			"mapConfig": &graphql.Field{
				Type:        mapConfigType,
				Description: "Map widget configuration",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return map[string]interface{}{
						"api_key":  deps.Map.APIKey,
						"center":   coordToMap(domain.Coordinate{Lat: deps.Map.CenterLat, Lng: deps.Map.CenterLng}),
						"zoom":     deps.Map.Zoom,
						"landmark": deps.Map.Landmark,
					}, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createSession": &graphql.Field{
				Type: sessionType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := deps.Sessions.Create(p.Context)
					if err != nil {
						return nil, err
					}
					return viewToMap(sess.View()), nil
				},
			},
			"deleteSession": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{"id": idArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := deps.Sessions.Delete(p.Context, p.Args["id"].(string)); err != nil {
						return nil, err
					}
					return true, nil
				},
			},
			"placeMarker": &graphql.Field{
				Type:        sessionType,
				Description: "Append a marker at the clicked coordinate",
				Args:        coordArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return viewResult(deps.Sessions.PlaceMarker(p.Context, p.Args["id"].(string), coordFromArgs(p.Args)))
				},
			},
			"removeMarker": &graphql.Field{
				Type:        removeResultType,
				Description: "Remove every marker equal to the coordinate",
				Args:        coordArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					v, removed, err := deps.Sessions.RemoveMarker(p.Context, p.Args["id"].(string), coordFromArgs(p.Args))
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"removed": removed, "session": viewToMap(v)}, nil
				},
			},
			"clearMarkers": &graphql.Field{
				Type: sessionType,
				Args: graphql.FieldConfigArgument{"id": idArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return viewResult(deps.Sessions.ClearMarkers(p.Context, p.Args["id"].(string)))
				},
			},
			"setPolygon": &graphql.Field{
				Type: sessionType,
				Args: graphql.FieldConfigArgument{
					"id":       idArg,
					"vertices": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(coordinateInput)))},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					raw, _ := p.Args["vertices"].([]interface{})
					vertices := make([]domain.Coordinate, 0, len(raw))
					for _, r := range raw {
						if m, ok := r.(map[string]interface{}); ok {
							vertices = append(vertices, coordFromArgs(m))
						}
					}
					return viewResult(deps.Sessions.SetPolygon(p.Context, p.Args["id"].(string), vertices))
				},
			},
			"setCircle": &graphql.Field{
				Type: sessionType,
				Args: graphql.FieldConfigArgument{
					"id":     idArg,
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					radius := p.Args["radius"].(float64)
					return viewResult(deps.Sessions.SetCircle(p.Context, p.Args["id"].(string), coordFromArgs(p.Args), radius))
				},
			},
			"clearPerimeter": &graphql.Field{
				Type: sessionType,
				Args: graphql.FieldConfigArgument{"id": idArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return viewResult(deps.Sessions.ClearPerimeter(p.Context, p.Args["id"].(string)))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

// graphql-go resolves fields by name or json tag but does not descend into
// embedded structs, so views are flattened into maps.
func viewToMap(v *domain.View) map[string]interface{} {
	markers := make([]map[string]interface{}, len(v.Markers))
	for i, m := range v.Markers {
		markers[i] = map[string]interface{}{"lat": m.Lat, "lng": m.Lng, "visible": m.Visible}
	}

	pj := domain.EncodePerimeter(v.Perimeter)
	perimeter := map[string]interface{}{"type": string(pj.Type)}
	if pj.Vertices != nil {
		vertices := make([]map[string]interface{}, len(pj.Vertices))
		for i, c := range pj.Vertices {
			vertices[i] = coordToMap(c)
		}
		perimeter["vertices"] = vertices
	}
	if pj.Center != nil {
		perimeter["center"] = coordToMap(*pj.Center)
	}
	if pj.Radius != nil {
		perimeter["radius"] = *pj.Radius
	}

	return map[string]interface{}{
		"session_id": v.SessionID,
		"markers":    markers,
		"perimeter":  perimeter,
		"active":     v.Active,
		"visible":    v.Visible,
		"total":      v.Total,
	}
}

func viewResult(v *domain.View, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return viewToMap(v), nil
}

func coordToMap(c domain.Coordinate) map[string]interface{} {
	return map[string]interface{}{"lat": c.Lat, "lng": c.Lng}
}

func coordFromArgs(args map[string]interface{}) domain.Coordinate {
	lat, _ := args["lat"].(float64)
	lng, _ := args["lng"].(float64)
	return domain.Coordinate{Lat: lat, Lng: lng}
}
