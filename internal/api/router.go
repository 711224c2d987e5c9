package api

import (
	"go-transform-pipeline/internal/api/handler"
	"go-transform-pipeline/pkg/router"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-transform-pipeline/docs"
)

func RegisterRoutes(r *router.Router) {
	r.POST("/api/v1/preview/transform", handler.PreviewTransform)
	r.POST("/api/v1/discover", handler.DiscoverRecords)

	r.POST("/api/v1/connectors", handler.CreateConnector)
	r.GET("/api/v1/connectors", handler.ListConnectors)
	r.GET("/api/v1/connectors/*", handler.GetConnector)
	r.PUT("/api/v1/connectors/*", handler.UpdateConnector)
	r.DELETE("/api/v1/connectors/*", handler.DeleteConnector)

	r.POST("/api/v1/processes", handler.CreateProcess)
	r.GET("/api/v1/processes", handler.ListProcesses)
	r.POST("/api/v1/processes/*/plan", handler.SavePlan)
	r.POST("/api/v1/processes/*/run", handler.RunProcess)
	r.GET("/api/v1/processes/*", handler.GetProcess)
	r.DELETE("/api/v1/processes/*", handler.DeleteProcess)

	r.GET("/api/v1/runs", handler.ListRuns)
	r.GET("/api/v1/runs/*", handler.GetRun)
	r.GET("/api/v1/download/*", handler.DownloadOutput)

	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}
