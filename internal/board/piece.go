package board

// Color represents the color of a piece or player. White moves first
// (the red side in traditional notation).
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// PieceType represents the type of a xiangqi piece.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Rook
	Advisor
	Cannon
	Pawn
	Knight
	Bishop
	King
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Rook:
		return "Rook"
	case Advisor:
		return "Advisor"
	case Cannon:
		return "Cannon"
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	chars := []byte{' ', 'r', 'a', 'c', 'p', 'n', 'b', 'k'}
	if pt > King {
		return ' '
	}
	return chars[pt]
}

// MaxPieces is the number of pieces of each type a side starts with.
var MaxPieces = [8]int{0, 2, 2, 2, 5, 2, 2, 1}

// Piece combines PieceType and Color into a single value.
// Encoded as: color<<3 | pieceType
type Piece uint8

const (
	NoPiece       Piece = 0
	WhiteRook     Piece = Piece(White)<<3 | Piece(Rook)
	WhiteAdvisor  Piece = Piece(White)<<3 | Piece(Advisor)
	WhiteCannon   Piece = Piece(White)<<3 | Piece(Cannon)
	WhitePawn     Piece = Piece(White)<<3 | Piece(Pawn)
	WhiteKnight   Piece = Piece(White)<<3 | Piece(Knight)
	WhiteBishop   Piece = Piece(White)<<3 | Piece(Bishop)
	WhiteKing     Piece = Piece(White)<<3 | Piece(King)
	BlackRook     Piece = Piece(Black)<<3 | Piece(Rook)
	BlackAdvisor  Piece = Piece(Black)<<3 | Piece(Advisor)
	BlackCannon   Piece = Piece(Black)<<3 | Piece(Cannon)
	BlackPawn     Piece = Piece(Black)<<3 | Piece(Pawn)
	BlackKnight   Piece = Piece(Black)<<3 | Piece(Knight)
	BlackBishop   Piece = Piece(Black)<<3 | Piece(Bishop)
	BlackKing     Piece = Piece(Black)<<3 | Piece(King)
	PieceNB             = 16
)

// NewPiece creates a Piece from PieceType and Color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt == NoPieceType || pt > King || c >= NoColor {
		return NoPiece
	}
	return Piece(c)<<3 | Piece(pt)
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	return PieceType(p & 7)
}

// Color returns the Color of the piece.
func (p Piece) Color() Color {
	if p == NoPiece {
		return NoColor
	}
	return Color(p >> 3)
}

// String returns the FEN character for the piece.
// Uppercase for white, lowercase for black.
func (p Piece) String() string {
	if p == NoPiece || p.Type() == NoPieceType {
		return " "
	}
	c := p.Type().Char()
	if p.Color() == White {
		c -= 'a' - 'A'
	}
	return string(c)
}

// PieceFromChar converts a FEN character to a Piece. Both the
// rook/advisor/cannon/pawn/knight/bishop/king letters and the
// alternative h (horse) and e (elephant) letters are accepted.
func PieceFromChar(c byte) Piece {
	color := White
	if c >= 'a' && c <= 'z' {
		color = Black
		c -= 'a' - 'A'
	}
	switch c {
	case 'R':
		return NewPiece(Rook, color)
	case 'A':
		return NewPiece(Advisor, color)
	case 'C':
		return NewPiece(Cannon, color)
	case 'P':
		return NewPiece(Pawn, color)
	case 'N', 'H':
		return NewPiece(Knight, color)
	case 'B', 'E':
		return NewPiece(Bishop, color)
	case 'K':
		return NewPiece(King, color)
	default:
		return NoPiece
	}
}
