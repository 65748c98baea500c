package server

import (
	"errors"

	"github.com/NextMind-AI/dashsync/connection"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

func (s *Server) connectionResponse(session connection.Session) ConnectionResponse {
	return ConnectionResponse{
		Session:   session,
		QRCodeURL: s.qrCodes.URL(session.SettingID, session.QRCode),
	}
}

func (s *Server) listConnectionsHandler(c fiber.Ctx) error {
	sessions := s.connections.Sessions()
	responses := make([]ConnectionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, s.connectionResponse(session))
	}
	return c.JSON(responses)
}

// initiateConnectionHandler handles POST /connections/:settingId. With
// ?mode=restart the pairing goes through the restart endpoint, which is how
// a disconnected channel is reconnected.
func (s *Server) initiateConnectionHandler(c fiber.Ctx) error {
	settingID := c.Params("settingId")

	poller, err := s.connections.Get(c.Context(), settingID)
	if err != nil {
		return connectionError(c, err)
	}

	restart := c.Query("mode") == string(connection.ModeRestart)
	log.Info().Str("setting_id", settingID).Bool("restart", restart).Msg("Received connection request")

	var session connection.Session
	if restart {
		session, err = poller.Reconnect(c.Context())
	} else {
		session, err = poller.Initiate(c.Context(), connection.ModeConnect)
	}
	if err != nil {
		return connectionError(c, err)
	}
	return c.JSON(s.connectionResponse(session))
}

func (s *Server) getConnectionHandler(c fiber.Ctx) error {
	poller, err := s.connections.Get(c.Context(), c.Params("settingId"))
	if err != nil {
		return connectionError(c, err)
	}
	return c.JSON(s.connectionResponse(poller.Session()))
}

func (s *Server) cancelConnectionHandler(c fiber.Ctx) error {
	poller, ok := s.connections.Lookup(c.Params("settingId"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "NOT_FOUND", "No connection for this setting")
	}
	poller.Cancel()
	return c.JSON(s.connectionResponse(poller.Session()))
}

func connectionError(c fiber.Ctx, err error) error {
	if errors.Is(err, connection.ErrEmptySettingID) {
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_PARAMETER", err.Error())
	}
	log.Error().Err(err).Msg("Connection request failed")
	return errorJSON(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}
