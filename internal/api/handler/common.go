package handler

import (
	"Lumen/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

// pathUserID 解析路径中的用户 id
func pathUserID(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, service.ErrParamInvalid
	}
	return id, nil
}

func getPagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "0"))
	if err != nil {
		pageSize = 0
	}
	return page, pageSize
}
