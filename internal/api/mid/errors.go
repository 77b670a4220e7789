package mid

import (
	"context"
	"net/http"
	"path"

	"github.com/ahrav/secaudit/internal/api/errs"
	"github.com/ahrav/secaudit/pkg/common/logger"
	"github.com/ahrav/secaudit/pkg/web"
)

// Errors handles errors coming out of the call chain. Anything that is not
// already an *errs.Error is logged and replaced by a generic internal error
// so implementation details never reach the client.
func Errors(log *logger.Logger) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			resp := next(ctx, r)
			err, isErr := resp.(error)
			if !isErr {
				return resp
			}

			appErr := errs.GetError(err)
			if appErr == nil {
				appErr = errs.Newf(errs.Internal, "Internal Server Error")
				log.Error(ctx, "handled error during request", "err", err, "source_err_file", appErr.FileName)
				return appErr
			}

			log.Error(ctx, "handled error during request",
				"err", err,
				"code", appErr.Code.String(),
				"source_err_file", path.Base(appErr.FileName),
				"source_err_func", path.Base(appErr.FuncName))

			if appErr.Code == errs.Internal {
				appErr = errs.Newf(errs.Internal, "Internal Server Error")
			}
			return appErr
		}

		return h
	}

	return m
}
