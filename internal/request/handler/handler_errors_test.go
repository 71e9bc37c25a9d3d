package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"hemolink/internal/auth"
	"hemolink/internal/notification/dispatch"
	"hemolink/internal/request/handler/mocks"
	"hemolink/internal/request/service"
	"hemolink/pkg/domain"
	dErrors "hemolink/pkg/domain-errors"
)

func dispatchResultWith(compatible, sent int) dispatch.Result {
	return dispatch.Result{CompatibleDonors: compatible, NotificationsSent: sent}
}

// HandlerErrorSuite drives the handler against a mocked service to pin the
// translation of each domain error code to its HTTP status.
type HandlerErrorSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler
}

func TestHandlerErrorSuite(t *testing.T) {
	suite.Run(t, new(HandlerErrorSuite))
}

func (s *HandlerErrorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(s.service, logger, nil, auth.NewJWTServiceAdapter(jwtService))
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerErrorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerErrorSuite) TestConflictOnExhaustedUpsertRetries() {
	donorID := domain.NewUserID()
	requestID := domain.NewRequestID()
	s.service.EXPECT().
		Respond(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "donor response upsert kept conflicting"))

	rec := doJSON(s.T(), s.router, http.MethodPost,
		"/requests/"+requestID.String()+"/respond", bearerFor(s.T(), donorID),
		map[string]string{"response": "accepted"})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlerErrorSuite) TestForbiddenRespondingForAnotherDonor() {
	requestID := domain.NewRequestID()
	s.service.EXPECT().
		Respond(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeForbidden, "you can only respond as yourself"))

	rec := doJSON(s.T(), s.router, http.MethodPost,
		"/requests/"+requestID.String()+"/respond", bearerFor(s.T(), domain.NewUserID()),
		map[string]string{"response": "accepted"})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerErrorSuite) TestInternalErrorHidesDetail() {
	requestID := domain.NewRequestID()
	s.service.EXPECT().
		GetRequest(gomock.Any(), requestID).
		Return(nil, dErrors.New(dErrors.CodeInternal, "pq: connection reset"))

	rec := doJSON(s.T(), s.router, http.MethodGet, "/requests/"+requestID.String(), "", nil)
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "pq:")
}

func (s *HandlerErrorSuite) TestDispatchPartialOnRedispatch() {
	requestID := domain.NewRequestID()
	s.service.EXPECT().
		RedispatchRequest(gomock.Any(), requestID).
		Return(
			// Compatible donors were found, nothing was written.
			dispatchResultWith(3, 0),
			dErrors.New(dErrors.CodeDispatchPartial, "request created but donor notifications were not sent"),
		)

	rec := doJSON(s.T(), s.router, http.MethodPost,
		"/requests/"+requestID.String()+"/dispatch", bearerFor(s.T(), domain.NewUserID()), nil)
	s.Equal(http.StatusAccepted, rec.Code)
}

func (s *HandlerErrorSuite) TestRespondParamsCarryCaller() {
	donorID := domain.NewUserID()
	requestID := domain.NewRequestID()
	s.service.EXPECT().
		Respond(gomock.Any(), gomock.Cond(func(params service.RespondParams) bool {
			return params.CallerID == donorID && params.DonorID == donorID && params.RequestID == requestID
		})).
		Return(&service.RespondResult{Message: "Your response has been recorded."}, nil)

	rec := doJSON(s.T(), s.router, http.MethodPost,
		"/requests/"+requestID.String()+"/respond", bearerFor(s.T(), donorID),
		map[string]string{"response": "maybe"})
	s.Equal(http.StatusOK, rec.Code)
}
