package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/danmuck/tlvcodec/internal/observability"
	"github.com/danmuck/tlvcodec/internal/protocol/frame"
	"github.com/danmuck/tlvcodec/internal/protocol/tlv"
	"github.com/danmuck/tlvcodec/internal/protocol/transcode"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const elementMetricName = "element"

var errBodyTooLarge = errors.New("request body too large")

func (s *Inspector) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": s.cfg.Name,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	v1.GET("/structures", s.listStructures)
	v1.POST("/decode", s.decodeElement)
	v1.POST("/decode/:structure", s.decodeStructure)
	v1.POST("/frame", s.decodeFrame)
	v1.POST("/encode", s.encodeElement)
}

func (s *Inspector) listStructures(c *gin.Context) {
	list := s.cfg.Registry.List()
	out := make([]gin.H, 0, len(list))
	for _, d := range list {
		out = append(out, gin.H{
			"name":        d.Name,
			"description": d.Description,
			"fields":      d.FieldNames(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"structures": out})
}

func (s *Inspector) readBody(c *gin.Context) ([]byte, bool) {
	limit := int64(s.cfg.FrameLimits.MaxPayloadBytes) + frame.HeaderLen
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		s.fail(c, http.StatusRequestEntityTooLarge, errBodyTooLarge)
		return nil, false
	}
	return data, true
}

// fail records err on the context for the request logger and writes it.
func (s *Inspector) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	body := gin.H{"error": err.Error()}
	if kind := tlv.KindOf(err); kind != "" {
		body["kind"] = string(kind)
	}
	c.AbortWithStatusJSON(status, body)
}

func (s *Inspector) parse(data []byte) (tlv.Element, error) {
	e, err := tlv.ParseElement(data, s.cfg.TLVLimits)
	observability.RecordDecode(elementMetricName, len(data), err)
	return e, err
}

// render writes e in the requested format: json (default), text, yaml or cbor.
func (s *Inspector) render(c *gin.Context, e tlv.Element) {
	switch c.DefaultQuery("format", "json") {
	case "text":
		c.String(http.StatusOK, transcode.DumpString(e))
	case "yaml":
		out, err := transcode.ToYAML(e)
		if err != nil {
			s.fail(c, http.StatusInternalServerError, err)
			return
		}
		c.Data(http.StatusOK, "application/yaml", out)
	case "cbor":
		out, err := transcode.ToCBOR(e)
		if err != nil {
			s.fail(c, http.StatusInternalServerError, err)
			return
		}
		c.Data(http.StatusOK, "application/cbor", out)
	case "json":
		out, err := transcode.ToJSON(e)
		if err != nil {
			s.fail(c, http.StatusUnprocessableEntity, err)
			return
		}
		c.Data(http.StatusOK, "application/json", out)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "format must be json, text, yaml or cbor"})
	}
}

func (s *Inspector) decodeElement(c *gin.Context) {
	data, ok := s.readBody(c)
	if !ok {
		return
	}
	e, err := s.parse(data)
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	s.render(c, e)
}

func (s *Inspector) decodeStructure(c *gin.Context) {
	name := c.Param("structure")
	d, ok := s.cfg.Registry.Resolve(name)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown structure: " + name})
		return
	}
	data, ok := s.readBody(c)
	if !ok {
		return
	}
	v, err := d.Decode(data, s.cfg.TLVLimits)
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"structure": d.Name, "text": v.String()})
}

func (s *Inspector) decodeFrame(c *gin.Context) {
	data, ok := s.readBody(c)
	if !ok {
		return
	}
	f, err := frame.ReadFrame(bytes.NewReader(data), s.cfg.FrameLimits)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	e, err := s.parse(f.Payload)
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	payload, err := transcode.ToJSON(e)
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message_id": f.Header.MessageID,
		"flags":      f.Header.Flags,
		"payload":    json.RawMessage(payload),
	})
}

func (s *Inspector) encodeElement(c *gin.Context) {
	data, ok := s.readBody(c)
	if !ok {
		return
	}
	e, err := transcode.FromJSON(data)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	w := tlv.NewWriter(s.cfg.TLVLimits)
	err = tlv.WriteElement(w, e)
	var out []byte
	if err == nil {
		out, err = w.Finish()
	}
	observability.RecordEncode(elementMetricName, len(out), err)
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", out)
}
