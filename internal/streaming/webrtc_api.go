package streaming

import (
	"github.com/pion/interceptor"
	"github.com/pion/interceptor/pkg/nack"
	"github.com/pion/interceptor/pkg/report"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/smazurov/docscan/internal/metrics"
)

// NACKBufferSize is the number of packets kept for retransmission. The live
// view peaks around 1.5 Mbit/s, so 1024 packets is several seconds.
const NACKBufferSize = 1024

// previewFmtp is the only H.264 profile the preview encoder produces.
const previewFmtp = "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f"

// NewWebRTCAPI builds a send-only H.264 API with NACK, sender reports, TWCC
// and feedback metrics.
func NewWebRTCAPI() (*webrtc.API, error) {
	m := &webrtc.MediaEngine{}
	if err := registerCodecs(m); err != nil {
		return nil, err
	}

	i := &interceptor.Registry{}
	if err := configureInterceptors(m, i); err != nil {
		return nil, err
	}
	i.Add(&feedbackMonitorFactory{})
	i.Add(&packetCounterFactory{})

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(i),
	), nil
}

func registerCodecs(m *webrtc.MediaEngine) error {
	feedback := []webrtc.RTCPFeedback{
		{Type: "goog-remb"},
		{Type: "ccm", Parameter: "fir"},
		{Type: "nack"},
		{Type: "nack", Parameter: "pli"},
	}

	for _, codec := range []webrtc.RTPCodecParameters{
		{
			RTPCodecCapability: webrtc.RTPCodecCapability{
				MimeType:     webrtc.MimeTypeH264,
				ClockRate:    90000,
				SDPFmtpLine:  previewFmtp,
				RTCPFeedback: feedback,
			},
			PayloadType: 96,
		},
		{
			// Safari sometimes only offers plain baseline
			RTPCodecCapability: webrtc.RTPCodecCapability{
				MimeType:     webrtc.MimeTypeH264,
				ClockRate:    90000,
				SDPFmtpLine:  "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42001f",
				RTCPFeedback: feedback,
			},
			PayloadType: 97,
		},
	} {
		if err := m.RegisterCodec(codec, webrtc.RTPCodecTypeVideo); err != nil {
			return err
		}
	}
	return nil
}

func configureInterceptors(m *webrtc.MediaEngine, i *interceptor.Registry) error {
	responder, err := nack.NewResponderInterceptor(nack.ResponderSize(NACKBufferSize))
	if err != nil {
		return err
	}
	m.RegisterFeedback(webrtc.RTCPFeedback{Type: "nack"}, webrtc.RTPCodecTypeVideo)
	m.RegisterFeedback(webrtc.RTCPFeedback{Type: "nack", Parameter: "pli"}, webrtc.RTPCodecTypeVideo)
	i.Add(responder)

	sender, err := report.NewSenderInterceptor()
	if err != nil {
		return err
	}
	i.Add(sender)

	return webrtc.ConfigureTWCCSender(m, i)
}

type feedbackMonitorFactory struct{}

func (f *feedbackMonitorFactory) NewInterceptor(_ string) (interceptor.Interceptor, error) {
	return &feedbackMonitor{}, nil
}

// feedbackMonitor counts loss and keyframe requests coming back from viewers.
type feedbackMonitor struct {
	interceptor.NoOp
}

func (f *feedbackMonitor) BindRTCPReader(reader interceptor.RTCPReader) interceptor.RTCPReader {
	return interceptor.RTCPReaderFunc(func(b []byte, a interceptor.Attributes) (int, interceptor.Attributes, error) {
		n, attr, err := reader.Read(b, a)
		if err != nil {
			return n, attr, err
		}
		if packets, parseErr := rtcp.Unmarshal(b[:n]); parseErr == nil {
			recordFeedback(packets)
		}
		return n, attr, err
	})
}

func recordFeedback(packets []rtcp.Packet) {
	for _, pkt := range packets {
		switch p := pkt.(type) {
		case *rtcp.TransportLayerNack:
			count := 0
			for _, pair := range p.Nacks {
				count += len(pair.PacketList())
			}
			metrics.RecordPreviewFeedback("nack", count)
		case *rtcp.PictureLossIndication:
			metrics.RecordPreviewFeedback("pli", 1)
		case *rtcp.FullIntraRequest:
			metrics.RecordPreviewFeedback("fir", 1)
		}
	}
}

type packetCounterFactory struct{}

func (f *packetCounterFactory) NewInterceptor(_ string) (interceptor.Interceptor, error) {
	return &packetCounter{}, nil
}

// packetCounter counts outgoing RTP packets and payload bytes.
type packetCounter struct {
	interceptor.NoOp
}

func (c *packetCounter) BindLocalStream(_ *interceptor.StreamInfo, writer interceptor.RTPWriter) interceptor.RTPWriter {
	return interceptor.RTPWriterFunc(func(header *rtp.Header, payload []byte, attributes interceptor.Attributes) (int, error) {
		n, err := writer.Write(header, payload, attributes)
		if err == nil {
			metrics.RecordPreviewPacket(len(payload))
		}
		return n, err
	})
}
