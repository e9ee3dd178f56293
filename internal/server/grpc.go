package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

const (
	ExtractionServiceName = "invoice.v1.ExtractionService"
	ExtractMethod         = "/" + ExtractionServiceName + "/Extract"

	// SourceMetadataKey optionally names the document in Extract calls.
	SourceMetadataKey    = "x-source"
	requestIDMetadataKey = "x-request-id"
)

// ExtractionServer takes OCR text and answers with the stored extraction
// document as a google.protobuf.Struct.
type ExtractionServer interface {
	Extract(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
}

// ExtractionServiceDesc registers ExtractionServer without generated stubs;
// the messages are well-known protobuf types.
var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtractionServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: extractHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "invoice/v1/extraction.proto",
}

func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

func extractHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServer).Extract(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExtractMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionServer).Extract(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

type ExtractionService struct {
	proc   TextProcessor
	logger *slog.Logger
}

func NewExtractionService(proc TextProcessor, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{proc: proc, logger: logger}
}

func (s *ExtractionService) Extract(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	text := in.GetValue()
	if err := common.ValidateText(text); err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	source := "grpc:" + common.RequestIDFromContext(ctx)
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(SourceMetadataKey); len(v) > 0 && v[0] != "" {
			source = v[0]
		}
	}

	e, status, err := s.proc.ProcessText(ctx, source, text)
	if err != nil {
		s.logger.Error("grpc.extract.failed", "source", source, "error", err)
		return nil, common.ToStatus(err)
	}

	b, err := json.Marshal(ExtractResponse{Status: status, Extraction: e, Totals: e.Totals()})
	if err != nil {
		return nil, common.InternalErrorf("marshal extraction: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, common.InternalErrorf("encode extraction: %v", err)
	}
	return out, nil
}

// UnaryRequestID carries x-request-id metadata into the context and logs each call.
func UnaryRequestID(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(requestIDMetadataKey); len(v) > 0 {
				ctx = common.WithRequestID(ctx, v[0])
			}
		}
		ctx, id := common.EnsureRequestID(ctx)
		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"method", info.FullMethod,
			"request_id", id,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

// ExtractionClient calls ExtractionService over an existing connection.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

// Extract sends text; source is optional.
func (c *ExtractionClient) Extract(ctx context.Context, text, source string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if source != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, SourceMetadataKey, source)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ExtractMethod, wrapperspb.String(text), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
