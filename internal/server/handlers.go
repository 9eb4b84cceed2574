package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"actreco/internal/model"
	"actreco/internal/pipeline"
	"actreco/internal/store"
)

// 业务错误码
const (
	CodeOK          = 0
	CodeBadRequest  = 1001
	CodeNotFound    = 4004
	CodeParseFailed = 4022
	CodeFailed      = 5000
	CodeNoJournal   = 5001
)

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, status, code int, message string) {
	c.JSON(status, Response{
		Code:    code,
		Message: message,
	})
}

// failRun 按错误类型返回对应的状态码；data 为部分结果（如运行 ID）
func failRun(c *gin.Context, err error, data interface{}) {
	var (
		usage *model.UsageError
		nf    *model.NotFoundError
		pe    *model.ParseError
	)
	status, code := http.StatusInternalServerError, CodeFailed
	switch {
	case errors.As(err, &usage):
		status, code = http.StatusBadRequest, CodeBadRequest
	case errors.As(err, &nf):
		status, code = http.StatusNotFound, CodeNotFound
	case errors.As(err, &pe):
		status, code = http.StatusUnprocessableEntity, CodeParseFailed
	}
	c.JSON(status, Response{Code: code, Message: err.Error(), Data: data})
}

// Health 健康检查
// GET /api/health
func (s *Server) Health(c *gin.Context) {
	success(c, gin.H{
		"status":  "ok",
		"journal": s.store != nil,
	})
}

// ListRuns 运行记录列表
// GET /api/runs?kind=act&limit=20
func (s *Server) ListRuns(c *gin.Context) {
	if s.store == nil {
		errorResponse(c, http.StatusServiceUnavailable, CodeNoJournal, "运行记录不可用")
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errorResponse(c, http.StatusBadRequest, CodeBadRequest, "limit 参数错误")
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(model.RunKind(c.Query("kind")), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, CodeFailed, err.Error())
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	success(c, runs)
}

// GetRun 单条运行记录及分区结果
// GET /api/runs/:id
func (s *Server) GetRun(c *gin.Context) {
	if s.store == nil {
		errorResponse(c, http.StatusServiceUnavailable, CodeNoJournal, "运行记录不可用")
		return
	}
	id := c.Param("id")
	run, err := s.store.GetRun(id)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			errorResponse(c, http.StatusNotFound, CodeNotFound, "运行记录不存在")
			return
		}
		errorResponse(c, http.StatusInternalServerError, CodeFailed, err.Error())
		return
	}
	sections, err := s.store.ListRunSections(id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, CodeFailed, err.Error())
		return
	}
	success(c, gin.H{"run": run, "sections": sections})
}

type actRequest struct {
	ContractFile string `json:"contractFile" binding:"required"`
	Template     string `json:"template"`
}

// CreateAct 生成对账单
// POST /api/acts
func (s *Server) CreateAct(c *gin.Context) {
	var req actRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "参数错误")
		return
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()

	res, err := s.coordinator.Act(pipeline.ActOptions{ContractFile: req.ContractFile, TemplatePath: req.Template})
	if err != nil {
		failRun(c, err, res)
		return
	}
	success(c, res)
}

// LatestActs 每个客户最新的对账单
// GET /api/acts/latest?root=...
func (s *Server) LatestActs(c *gin.Context) {
	root := c.Query("root")
	if root == "" {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "缺少 root 参数")
		return
	}
	acts, err := s.coordinator.LatestActs(root)
	if err != nil {
		failRun(c, err, nil)
		return
	}
	if acts == nil {
		acts = []pipeline.LatestAct{}
	}
	success(c, acts)
}

type scanRequest struct {
	Root     string `json:"root" binding:"required"`
	Workbook string `json:"workbook" binding:"required"`
	Sheet    string `json:"sheet"`
}

// CreateScan 向已有工作簿写入带费用列的分区
// POST /api/scans
func (s *Server) CreateScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "参数错误")
		return
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()

	res, err := s.coordinator.Scan(pipeline.ScanOptions{Root: req.Root, Workbook: req.Workbook, Sheet: req.Sheet})
	if err != nil {
		failRun(c, err, res)
		return
	}
	success(c, res)
}

type fillRequest struct {
	DataFile string `json:"dataFile" binding:"required"`
	Workbook string `json:"workbook" binding:"required"`
	Sheet    string `json:"sheet" binding:"required"`
}

// CreateFill 替换工作表占位符
// POST /api/fills
func (s *Server) CreateFill(c *gin.Context) {
	var req fillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "参数错误")
		return
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()

	res, err := s.coordinator.FillSheet(pipeline.FillOptions{DataFile: req.DataFile, Workbook: req.Workbook, Sheet: req.Sheet})
	if err != nil {
		failRun(c, err, res)
		return
	}
	success(c, res)
}

type batchRequest struct {
	Root     string `json:"root" binding:"required"`
	Template string `json:"template"`
}

// CreateBatch 批量生成对账单
// POST /api/batches
func (s *Server) CreateBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "参数错误")
		return
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()

	res, err := s.coordinator.Batch(req.Root, req.Template)
	if err != nil {
		failRun(c, err, res)
		return
	}
	success(c, res)
}

type tabsRequest struct {
	Template string `json:"template" binding:"required"`
	BasePath string `json:"basePath" binding:"required"`
	BaseName string `json:"baseName"`
}

// CreateTabs 为每个客户复制模板工作表
// POST /api/tabs
func (s *Server) CreateTabs(c *gin.Context) {
	var req tabsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "参数错误")
		return
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()

	res, err := s.coordinator.Tabs(pipeline.TabsOptions{Template: req.Template, BasePath: req.BasePath, BaseName: req.BaseName})
	if err != nil {
		failRun(c, err, res)
		return
	}
	success(c, res)
}

type contractRequest struct {
	DataFile string `json:"dataFile" binding:"required"`
	Template string `json:"template"`
	SkipPDF  bool   `json:"skipPdf"`
}

// CreateContract 生成合同
// POST /api/contracts
func (s *Server) CreateContract(c *gin.Context) {
	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, CodeBadRequest, "参数错误")
		return
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()

	res, err := s.coordinator.Contract(pipeline.ContractOptions{DataFile: req.DataFile, TemplatePath: req.Template, SkipPDF: req.SkipPDF})
	if err != nil {
		failRun(c, err, res)
		return
	}
	success(c, res)
}
