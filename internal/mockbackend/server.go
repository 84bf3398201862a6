package mockbackend

import (
	"context"
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/library-lending/gateway/internal/library"
)

var (
	requestJSON = protojson.MarshalOptions{UseProtoNames: true}
	recordJSON  = jsoniter.ConfigCompatibleWithStandardLibrary
)

// Service serves a Store over the LibraryService gRPC contract.
type Service struct {
	store *Store

	mu     sync.Mutex
	faults map[string]error
	calls  map[string]int
}

// NewService creates a service backed by store.
func NewService(store *Store) *Service {
	return &Service{
		store:  store,
		faults: make(map[string]error),
		calls:  make(map[string]int),
	}
}

// Store returns the backing store.
func (s *Service) Store() *Store {
	return s.store
}

// SetFault makes every call to method fail with err until cleared.
func (s *Service) SetFault(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method] = err
}

// ClearFaults removes all injected failures.
func (s *Service) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]error)
}

// Calls returns how many times method has been invoked.
func (s *Service) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// TotalCalls returns the number of invocations across all methods.
func (s *Service) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Register adds the LibraryService to a gRPC server.
func (s *Service) Register(server *grpc.Server) {
	server.RegisterService(s.serviceDesc(), s)
}

func (s *Service) serviceDesc() *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: string(library.Service.FullName()),
		HandlerType: (*any)(nil),
		Metadata:    library.File.Path(),
	}
	for _, name := range library.Methods() {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: name,
			Handler:    s.unaryHandler(name),
		})
	}
	return desc
}

func (s *Service) unaryHandler(name string) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	md, _ := library.Method(name)
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := dynamicpb.NewMessage(md.Input())
		if err := dec(in); err != nil {
			return nil, err
		}
		handle := func(ctx context.Context, req any) (any, error) {
			return s.dispatch(name, req.(*dynamicpb.Message))
		}
		if interceptor == nil {
			return handle(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: library.FullMethod(name)}
		return interceptor(ctx, in, info, handle)
	}
}

func (s *Service) dispatch(name string, in *dynamicpb.Message) (*dynamicpb.Message, error) {
	s.mu.Lock()
	s.calls[name]++
	fault := s.faults[name]
	s.mu.Unlock()
	if fault != nil {
		return nil, fault
	}

	raw, err := requestJSON.Marshal(in)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to read request: %v", err)
	}

	result, err := s.apply(name, raw)
	if err != nil {
		return nil, err
	}

	body, err := recordJSON.Marshal(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	md, _ := library.Method(name)
	out, err := library.Decode(md.Output(), body)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build response: %v", err)
	}
	return out, nil
}

func (s *Service) apply(name string, raw []byte) (map[string]any, error) {
	switch name {
	case library.ListBooks:
		return map[string]any{"books": s.store.ListBooks()}, nil

	case library.CreateBook, library.UpdateBook:
		var req struct {
			Book Book `json:"book"`
		}
		if err := decodeRequest(raw, &req); err != nil {
			return nil, err
		}
		var book Book
		var err error
		if name == library.CreateBook {
			book, err = s.store.CreateBook(req.Book)
		} else {
			book, err = s.store.UpdateBook(req.Book)
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{"book": book}, nil

	case library.ListMembers:
		return map[string]any{"members": s.store.ListMembers()}, nil

	case library.CreateMember, library.UpdateMember:
		var req struct {
			Member Member `json:"member"`
		}
		if err := decodeRequest(raw, &req); err != nil {
			return nil, err
		}
		var member Member
		var err error
		if name == library.CreateMember {
			member, err = s.store.CreateMember(req.Member)
		} else {
			member, err = s.store.UpdateMember(req.Member)
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{"member": member}, nil

	case library.BorrowBook:
		var req struct {
			BookID   int32  `json:"book_id"`
			MemberID int32  `json:"member_id"`
			DueAt    string `json:"due_at"`
		}
		if err := decodeRequest(raw, &req); err != nil {
			return nil, err
		}
		loan, err := s.store.BorrowBook(req.BookID, req.MemberID, req.DueAt)
		if err != nil {
			return nil, err
		}
		return map[string]any{"loan": loan}, nil

	case library.ReturnBook:
		var req struct {
			LoanID int32 `json:"loan_id"`
		}
		if err := decodeRequest(raw, &req); err != nil {
			return nil, err
		}
		loan, err := s.store.ReturnBook(req.LoanID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"loan": loan}, nil

	case library.ListBorrowedBooks:
		var req struct {
			MemberID int32 `json:"member_id"`
		}
		if err := decodeRequest(raw, &req); err != nil {
			return nil, err
		}
		loans, err := s.store.ListBorrowedBooks(req.MemberID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"loans": loans}, nil
	}

	return nil, status.Error(codes.Unimplemented, fmt.Sprintf("method %s not implemented", name))
}

func decodeRequest(raw []byte, v any) error {
	if err := recordJSON.Unmarshal(raw, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}
