package routers

import (
	"github.com/GrainArc/DxfSvg/views"
	"github.com/gin-gonic/gin"
)

func DxfRouters(r *gin.Engine, uc *views.DxfController) {
	dxfRouter := r.Group("/dxf")
	{
		// 单文件转换，返回SVG
		dxfRouter.POST("/Convert", uc.Convert)
		// zip/rar 批量转换，返回SVG压缩包
		dxfRouter.POST("/BatchConvert", uc.BatchConvert)
	}
	{
		dxfRouter.POST("/Layers", uc.Layers)
		dxfRouter.POST("/Dimensions", uc.Dimensions)
		dxfRouter.POST("/GeoJSON", uc.GeoJSON)
		dxfRouter.POST("/Preview", uc.Preview)
		dxfRouter.POST("/ExportDXF", uc.ExportDXF)
	}
	{
		dxfRouter.GET("/Records", uc.ListRecords)
		dxfRouter.GET("/Records/:task", uc.TaskRecords)
	}
}
