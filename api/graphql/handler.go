package graphql

import (
	"encoding/json"
	"net/http"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/labstack/echo/v4"

	"shophub/api"
	"shophub/service"
)

func init() {
	api.RegisterRoute(RegisterRoutes)
}

// RegisterRoutes mounts POST /graphql (relay JSON body) and GET /graphql
// (query and variables in the URL).
func RegisterRoutes(e *echo.Echo, svc *service.Container) {
	schema, err := NewSchema(svc.Catalog)
	if err != nil {
		panic("graphql: " + err.Error())
	}
	e.POST("/graphql", echo.WrapHandler(&relay.Handler{Schema: schema}))
	e.GET("/graphql", queryHandler(schema))
}

func queryHandler(schema *gql.Schema) echo.HandlerFunc {
	return func(c echo.Context) error {
		query := c.QueryParam("query")
		if query == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "query parameter is required")
		}
		var variables map[string]interface{}
		if v := c.QueryParam("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &variables); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "variables must be a JSON object")
			}
		}
		res := schema.Exec(c.Request().Context(), query, c.QueryParam("operationName"), variables)
		return c.JSON(http.StatusOK, res)
	}
}
