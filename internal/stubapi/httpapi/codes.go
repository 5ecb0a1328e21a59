package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/codemap/internal/common"
	"github.com/dmitrijs2005/codemap/internal/stubapi/codes"
	"github.com/gin-gonic/gin"
)

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondError(c, http.StatusBadRequest, "INVALID_QUERY", name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func pageQuery(c *gin.Context) (codes.Query, bool) {
	q := codes.Query{System: c.Query("system")}
	var ok bool
	if q.Page, ok = queryInt(c, "page"); !ok {
		return q, false
	}
	if q.PageSize, ok = queryInt(c, "pageSize"); !ok {
		return q, false
	}
	return q, true
}

func notFoundOr500(c *gin.Context, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "no such code: "+c.Param("id"))
		return
	}
	respondError(c, http.StatusInternalServerError, "INTERNAL", err.Error())
}

func (s *Server) listCodes(c *gin.Context) {
	q, ok := pageQuery(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.codes.Find(q))
}

func (s *Server) searchCodes(c *gin.Context) {
	q, ok := pageQuery(c)
	if !ok {
		return
	}
	q.Term = c.Query("q")
	if q.Term == "" {
		respondError(c, http.StatusBadRequest, "MISSING_QUERY", "q is required")
		return
	}
	c.JSON(http.StatusOK, s.codes.Find(q))
}

func (s *Server) getCode(c *gin.Context) {
	code, err := s.codes.Get(c.Param("id"))
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}

func (s *Server) updateCode(c *gin.Context) {
	var p codes.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "body must be a JSON object")
		return
	}
	code, err := s.codes.Update(c.Param("id"), p)
	if errors.Is(err, codes.ErrInvalidPatch) {
		respondError(c, http.StatusUnprocessableEntity, "EMPTY_PATCH", "nothing to update")
		return
	}
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}

func (s *Server) deleteCode(c *gin.Context) {
	if err := s.codes.Delete(c.Param("id")); err != nil {
		notFoundOr500(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) codeMappings(c *gin.Context) {
	m, err := s.codes.Mappings(c.Param("id"))
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "mappings": m})
}
