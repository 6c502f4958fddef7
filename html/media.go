package html

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	thumbTTL       = time.Hour
	thumbDefault   = 400
	thumbMin       = 32
	thumbMax       = 1200
	maxSourceBytes = 10 << 20
)

// thumb serves a square crop of an allow-listed product image.
func (h *handler) thumb(c echo.Context) error {
	src := c.QueryParam("src")
	u, err := url.Parse(src)
	if err != nil || !hostAllowed(u, h.svc.Config.MediaHosts) {
		return echo.NewHTTPError(http.StatusBadRequest, "image host not allowed")
	}
	w := thumbWidth(c.QueryParam("w"))
	format := "jpeg"
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), "image/webp") {
		format = "webp"
	}

	key := fmt.Sprintf("thumb:%s:%d:%s", format, w, src)
	body, ok := h.svc.Media.Get(key)
	if !ok {
		img, err := h.fetchImage(c.Request().Context(), src)
		if err != nil {
			h.svc.Log.WithError(err).WithField("src", src).Warn("thumbnail source failed")
			return echo.NewHTTPError(http.StatusBadGateway, "image unavailable")
		}
		body, err = encodeThumb(imaging.Fill(img, w, w, imaging.Center, imaging.Lanczos), format)
		if err != nil {
			return errors.Wrap(err, "encode thumbnail")
		}
		h.svc.Media.Set(key, body, thumbTTL, []string{"thumb"})
	}

	res := c.Response()
	res.Header().Set("Cache-Control", "public, max-age=86400")
	res.Header().Set("Vary", echo.HeaderAccept)
	return c.Blob(http.StatusOK, "image/"+format, body)
}

func thumbWidth(s string) int {
	w, err := strconv.Atoi(s)
	if err != nil || w <= 0 {
		return thumbDefault
	}
	if w < thumbMin {
		return thumbMin
	}
	if w > thumbMax {
		return thumbMax
	}
	return w
}

func (h *handler) fetchImage(ctx context.Context, src string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.media.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", src, resp.Status)
	}
	return imaging.Decode(io.LimitReader(resp.Body, maxSourceBytes), imaging.AutoOrientation(true))
}

func encodeThumb(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if format == "webp" {
		err = webp.Encode(&buf, img, &webp.Options{Quality: 80})
	} else {
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80))
	}
	return buf.Bytes(), err
}
